package entities

// RefundInvoice_v1 asks for a full refund of a paid invoice. It is issued
// from the ops surface and processed asynchronously so that a slow gateway
// call never blocks the request.
type RefundInvoice_v1 struct {
	Header EventHeader `json:"header"`

	InvoiceID int64  `json:"invoice_id"`
	Reason    string `json:"reason"`
}

package transport

// Step outcome statuses. Every collection operation resolves to one of
// these; the conversational layer forwards them to the model verbatim.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
)

// StepResult is the uniform outcome of a collection step.
type StepResult struct {
	Status        string         `json:"status"`
	Message       string         `json:"message"`
	MissingFields []string       `json:"missing_fields,omitempty"`
	NextStep      string         `json:"next_step,omitempty"`
	Collected     *CollectedData `json:"collected,omitempty"`
	Reference     string         `json:"reference,omitempty"`
}

// CollectedData mirrors the customer details gathered so far. Empty
// fields are omitted so the model only sees what exists.
type CollectedData struct {
	Service       string `json:"service,omitempty"`
	Name          string `json:"name,omitempty"`
	Age           *int   `json:"age,omitempty"`
	IDNumber      string `json:"id_number,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ImageUploaded bool   `json:"image_uploaded"`
	ImageVerified bool   `json:"image_verified"`
}

// UploadURLRequest asks for a presigned upload target for the ID image.
type UploadURLRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255,filename"`
	ContentType string `json:"content_type" validate:"required"`
	FileSize    int64  `json:"file_size" validate:"required,gt=0"`
}

// UploadURLResponse carries the presigned PUT URL the widget uploads to.
type UploadURLResponse struct {
	URL       string `json:"url"`
	FileKey   string `json:"file_key"`
	ExpiresAt string `json:"expires_at"`
}

// ImageConfirmRequest reports a completed upload back to the session.
type ImageConfirmRequest struct {
	FileKey string `json:"file_key" validate:"required,max=512"`
}

// OrderStatusResponse is the read surface for a confirmed order.
type OrderStatusResponse struct {
	Reference   string `json:"reference"`
	ServiceName string `json:"service_name"`
	Status      string `json:"status"`
	ConfirmedAt string `json:"confirmed_at"`
}

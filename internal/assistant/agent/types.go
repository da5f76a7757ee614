package agent

// ============================================================================
// TOOL INPUT/OUTPUT TYPES
// ============================================================================

// SearchKnowledgeInput is the structured input for the search_knowledge tool.
type SearchKnowledgeInput struct {
	Query string `json:"query"`           // The visitor's question, verbatim
	Limit int    `json:"limit,omitempty"` // Max snippets to return (default 5)
}

// KnowledgeSnippet is one knowledge base hit shaped for the model.
type KnowledgeSnippet struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
}

type SearchKnowledgeOutput struct {
	Status  string             `json:"status"`
	Message string             `json:"message,omitempty"`
	Results []KnowledgeSnippet `json:"results"`
}

// ListServicesInput takes no arguments; the tenant comes from the
// conversation identity.
type ListServicesInput struct{}

// ServiceOption is one orderable service the visitor may pick.
type ServiceOption struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

type ListServicesOutput struct {
	Status   string          `json:"status"`
	Message  string          `json:"message,omitempty"`
	Services []ServiceOption `json:"services"`
}

// SelectServiceInput starts or re-targets the order session.
type SelectServiceInput struct {
	ServiceID string `json:"service_id"` // Service id from get_available_services
}

type CollectNameInput struct {
	CustomerName string `json:"customer_name"` // Full name exactly as the visitor wrote it
}

type CollectAgeInput struct {
	CustomerAge string `json:"customer_age"` // Age exactly as the visitor wrote it
}

type CollectIDInput struct {
	CustomerID string `json:"customer_id"` // National ID exactly as the visitor wrote it
}

type CollectPhoneInput struct {
	PhoneNumber string `json:"phone_number"` // Phone number exactly as the visitor wrote it
}

// MarkImageUploadedInput reports that the visitor finished uploading.
type MarkImageUploadedInput struct {
	FileKey string `json:"file_key,omitempty"` // Storage key shown in the upload confirmation, if the visitor shared it
}

type VerifyImageInput struct{}

type CheckStatusInput struct{}

type ValidateDataInput struct{}

// ConfirmOrderInput finalizes the order.
type ConfirmOrderInput struct {
	Confirmation string `json:"confirmation"` // The visitor's confirmation reply, verbatim
}

// OrderStatusInput looks up a placed order.
type OrderStatusInput struct {
	OrderNumber string `json:"order_number,omitempty"` // Reference like SO-1A2B3C4D; empty means the most recent order
}

type OrderStatusOutput struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	Reference   string `json:"reference,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	OrderStatus string `json:"order_status,omitempty"`
	ConfirmedAt string `json:"confirmed_at,omitempty"`
}

// StepOutput is the envelope every collection tool returns. The model
// reads status and message and relays them; missing_fields and
// next_step steer the conversation to the next question.
type StepOutput struct {
	Status        string         `json:"status"`
	Message       string         `json:"message"`
	MissingFields []string       `json:"missing_fields,omitempty"`
	NextStep      string         `json:"next_step,omitempty"`
	Collected     *CollectedData `json:"collected,omitempty"`
	Reference     string         `json:"reference,omitempty"`
}

// CollectedData summarizes the customer details gathered so far.
type CollectedData struct {
	Service       string `json:"service,omitempty"`
	Name          string `json:"name,omitempty"`
	Age           *int   `json:"age,omitempty"`
	IDNumber      string `json:"id_number,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ImageUploaded bool   `json:"image_uploaded"`
	ImageVerified bool   `json:"image_verified"`
}

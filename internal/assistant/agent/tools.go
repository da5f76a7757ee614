package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	knowledgeservice "concierge_backend/internal/knowledge/service"
	"concierge_backend/internal/orders/domain"
	orderstransport "concierge_backend/internal/orders/transport"
	"concierge_backend/platform/sanitize"
)

// Tool names, exactly as the model sees them.
const (
	toolSearchKnowledge   = "search_knowledge"
	toolAvailableServices = "get_available_services"
	toolSelectService     = "select_service"
	toolCollectName       = "collect_customer_name"
	toolCollectAge        = "collect_customer_age"
	toolCollectID         = "collect_customer_id"
	toolCollectPhone      = "collect_customer_phone"
	toolMarkImage         = "mark_image_uploaded"
	toolVerifyImage       = "verify_image_upload"
	toolCheckStatus       = "check_collection_status"
	toolValidateData      = "validate_collected_data"
	toolConfirmOrder      = "confirm_order"
	toolOrderStatus       = "get_order_status"
)

const defaultSearchLimit = 5

// Zero-result replies reach the visitor verbatim, so they follow the
// language of the question.
const (
	msgNoArticlesEN = "No knowledge articles matched this question."
	msgNoArticlesAR = "لم يتم العثور على مقالات تجيب عن هذا السؤال."
)

// searchMeta tags search log rows written on behalf of the model.
var searchMeta = knowledgeservice.ClientMeta{UserAgent: "assistant"}

// ============================================================================
// DISPATCH BODIES
// ============================================================================
// Every body resolves the conversation identity, calls the backing
// service, and folds the outcome into the response envelope. Domain
// errors never cross the dispatch boundary as Go errors.

func (d *ToolDependencies) searchKnowledge(ctx context.Context, input SearchKnowledgeInput) SearchKnowledgeOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return SearchKnowledgeOutput{Status: orderstransport.StatusError, Message: msgMissingIdentity}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	snippets, err := d.Knowledge.Search(ctx, tenantID, input.Query, limit, searchMeta)
	if err != nil {
		d.logCall(toolSearchKnowledge, tenantID, visitorID, orderstransport.StatusError)
		return SearchKnowledgeOutput{Status: orderstransport.StatusError, Message: userMessage(err)}
	}

	results := make([]KnowledgeSnippet, 0, len(snippets))
	for _, s := range snippets {
		results = append(results, KnowledgeSnippet{
			Title:    s.Title,
			Content:  s.Content,
			Type:     s.ArticleType,
			Category: s.Category,
		})
	}

	d.logCall(toolSearchKnowledge, tenantID, visitorID, orderstransport.StatusSuccess)
	out := SearchKnowledgeOutput{Status: orderstransport.StatusSuccess, Results: results}
	if len(results) == 0 {
		out.Message = msgNoArticlesEN
		if sanitize.ContainsArabic(input.Query) {
			out.Message = msgNoArticlesAR
		}
	}
	return out
}

func (d *ToolDependencies) availableServices(ctx context.Context) ListServicesOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return ListServicesOutput{Status: orderstransport.StatusError, Message: msgMissingIdentity}
	}

	list, err := d.Catalog.ListOrderable(ctx, tenantID)
	if err != nil {
		d.logCall(toolAvailableServices, tenantID, visitorID, orderstransport.StatusError)
		return ListServicesOutput{Status: orderstransport.StatusError, Message: userMessage(err)}
	}

	services := make([]ServiceOption, 0, len(list.Items))
	for _, item := range list.Items {
		services = append(services, ServiceOption{
			ID:          item.ID.String(),
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
		})
	}

	d.logCall(toolAvailableServices, tenantID, visitorID, orderstransport.StatusSuccess)
	out := ListServicesOutput{Status: orderstransport.StatusSuccess, Services: services}
	if len(services) == 0 {
		out.Message = "No services are available for ordering right now."
	}
	return out
}

func (d *ToolDependencies) selectService(ctx context.Context, input SelectServiceInput) StepOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return identityFailure()
	}

	serviceID, err := uuid.Parse(strings.TrimSpace(input.ServiceID))
	if err != nil {
		return StepOutput{
			Status:  orderstransport.StatusError,
			Message: fmt.Sprintf("Service id %q is not valid. Use an id from get_available_services.", input.ServiceID),
		}
	}

	res, err := d.Orders.SelectService(ctx, tenantID, visitorID, serviceID)
	if err != nil {
		d.logCall(toolSelectService, tenantID, visitorID, orderstransport.StatusError)
		return toolFailure(err)
	}
	d.logCall(toolSelectService, tenantID, visitorID, res.Status)
	return stepOutput(res)
}

// collect runs one field-collection step. The four collect_* tools
// differ only in the field they target.
func (d *ToolDependencies) collect(ctx context.Context, toolName string, field domain.Field, raw string) StepOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return identityFailure()
	}

	res, err := d.Orders.Collect(ctx, tenantID, visitorID, field, raw)
	if err != nil {
		d.logCall(toolName, tenantID, visitorID, orderstransport.StatusError)
		return toolFailure(err)
	}
	d.logCall(toolName, tenantID, visitorID, res.Status)
	return stepOutput(res)
}

func (d *ToolDependencies) markImageUploaded(ctx context.Context, input MarkImageUploadedInput) StepOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return identityFailure()
	}

	res, err := d.Orders.MarkImageUploaded(ctx, tenantID, visitorID, input.FileKey)
	if err != nil {
		d.logCall(toolMarkImage, tenantID, visitorID, orderstransport.StatusError)
		return toolFailure(err)
	}
	d.logCall(toolMarkImage, tenantID, visitorID, res.Status)
	return stepOutput(res)
}

func (d *ToolDependencies) verifyImage(ctx context.Context) StepOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return identityFailure()
	}

	res, err := d.Orders.VerifyImageUpload(ctx, tenantID, visitorID)
	if err != nil {
		d.logCall(toolVerifyImage, tenantID, visitorID, orderstransport.StatusError)
		return toolFailure(err)
	}
	d.logCall(toolVerifyImage, tenantID, visitorID, res.Status)
	return stepOutput(res)
}

func (d *ToolDependencies) checkStatus(ctx context.Context) StepOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return identityFailure()
	}

	res, err := d.Orders.Status(ctx, tenantID, visitorID)
	if err != nil {
		d.logCall(toolCheckStatus, tenantID, visitorID, orderstransport.StatusError)
		return toolFailure(err)
	}
	d.logCall(toolCheckStatus, tenantID, visitorID, res.Status)
	return stepOutput(res)
}

func (d *ToolDependencies) validateData(ctx context.Context) StepOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return identityFailure()
	}

	res, err := d.Orders.Validate(ctx, tenantID, visitorID)
	if err != nil {
		d.logCall(toolValidateData, tenantID, visitorID, orderstransport.StatusError)
		return toolFailure(err)
	}
	d.logCall(toolValidateData, tenantID, visitorID, res.Status)
	return stepOutput(res)
}

func (d *ToolDependencies) confirmOrder(ctx context.Context, input ConfirmOrderInput) StepOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return identityFailure()
	}

	res, err := d.Orders.ConfirmOrder(ctx, tenantID, visitorID, input.Confirmation)
	if err != nil {
		d.logCall(toolConfirmOrder, tenantID, visitorID, orderstransport.StatusError)
		return toolFailure(err)
	}
	d.logCall(toolConfirmOrder, tenantID, visitorID, res.Status)
	return stepOutput(res)
}

func (d *ToolDependencies) orderStatus(ctx context.Context, input OrderStatusInput) OrderStatusOutput {
	tenantID, visitorID, ok := d.Identity()
	if !ok {
		return OrderStatusOutput{Status: orderstransport.StatusError, Message: msgMissingIdentity}
	}

	res, err := d.Orders.GetOrderStatus(ctx, tenantID, visitorID, input.OrderNumber)
	if err != nil {
		d.logCall(toolOrderStatus, tenantID, visitorID, orderstransport.StatusError)
		return OrderStatusOutput{Status: orderstransport.StatusError, Message: userMessage(err)}
	}
	d.logCall(toolOrderStatus, tenantID, visitorID, orderstransport.StatusSuccess)
	return OrderStatusOutput{
		Status:      orderstransport.StatusSuccess,
		Reference:   res.Reference,
		ServiceName: res.ServiceName,
		OrderStatus: res.Status,
		ConfirmedAt: res.ConfirmedAt,
	}
}

// ============================================================================
// TOOL CONSTRUCTORS
// ============================================================================

func createSearchKnowledgeTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolSearchKnowledge,
		Description: "Searches the company knowledge base and returns ranked snippets. Call this before answering ANY question about the company, its services, policies, or prices. Pass the visitor's question verbatim.",
	}, func(ctx tool.Context, input SearchKnowledgeInput) (SearchKnowledgeOutput, error) {
		return deps.searchKnowledge(context.Background(), input), nil
	})
}

func createAvailableServicesTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolAvailableServices,
		Description: "Lists the services this business offers for ordering, each with id, name, price, and description. Present ONLY these services to the visitor; never invent services.",
	}, func(ctx tool.Context, input ListServicesInput) (ListServicesOutput, error) {
		return deps.availableServices(context.Background()), nil
	})
}

func createSelectServiceTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolSelectService,
		Description: "Selects a service and starts the order session for this visitor. Call it with the id of the service the visitor picked from get_available_services. Re-selecting keeps details already collected.",
	}, func(ctx tool.Context, input SelectServiceInput) (StepOutput, error) {
		return deps.selectService(context.Background(), input), nil
	})
}

func createCollectNameTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolCollectName,
		Description: "Validates and stores the visitor's full name. Pass the name exactly as the visitor wrote it; the tool does all validation. Relay its message and ask for the field named in next_step.",
	}, func(ctx tool.Context, input CollectNameInput) (StepOutput, error) {
		return deps.collect(context.Background(), toolCollectName, domain.FieldName, input.CustomerName), nil
	})
}

func createCollectAgeTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolCollectAge,
		Description: "Validates and stores the visitor's age. Pass the age exactly as the visitor wrote it; the tool does all validation.",
	}, func(ctx tool.Context, input CollectAgeInput) (StepOutput, error) {
		return deps.collect(context.Background(), toolCollectAge, domain.FieldAge, input.CustomerAge), nil
	})
}

func createCollectIDTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolCollectID,
		Description: "Validates and stores the visitor's national ID number. Pass it exactly as the visitor wrote it; the tool does all validation.",
	}, func(ctx tool.Context, input CollectIDInput) (StepOutput, error) {
		return deps.collect(context.Background(), toolCollectID, domain.FieldID, input.CustomerID), nil
	})
}

func createCollectPhoneTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolCollectPhone,
		Description: "Validates and stores the visitor's mobile phone number. Pass it exactly as the visitor wrote it; the tool does all validation.",
	}, func(ctx tool.Context, input CollectPhoneInput) (StepOutput, error) {
		return deps.collect(context.Background(), toolCollectPhone, domain.FieldPhone, input.PhoneNumber), nil
	})
}

func createMarkImageUploadedTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolMarkImage,
		Description: "Records that the visitor finished uploading their ID image through the chat upload button. Include file_key when the upload confirmation shows one. All other details must be collected first.",
	}, func(ctx tool.Context, input MarkImageUploadedInput) (StepOutput, error) {
		return deps.markImageUploaded(context.Background(), input), nil
	})
}

func createVerifyImageTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolVerifyImage,
		Description: "Verifies the uploaded ID image is actually present in storage. Call it after mark_image_uploaded; the order cannot be confirmed until this succeeds.",
	}, func(ctx tool.Context, input VerifyImageInput) (StepOutput, error) {
		return deps.verifyImage(context.Background()), nil
	})
}

func createCheckStatusTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolCheckStatus,
		Description: "Reports what has been collected and what is still missing in the current order session. Use it when the visitor asks where they are, or when the conversation resumes after a pause.",
	}, func(ctx tool.Context, input CheckStatusInput) (StepOutput, error) {
		return deps.checkStatus(context.Background()), nil
	})
}

func createValidateDataTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolValidateData,
		Description: "Checks whether the order session has everything required for confirmation. Call it before asking the visitor to confirm.",
	}, func(ctx tool.Context, input ValidateDataInput) (StepOutput, error) {
		return deps.validateData(context.Background()), nil
	})
}

func createConfirmOrderTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolConfirmOrder,
		Description: "Finalizes the order once every detail is collected and the image is verified. Pass the visitor's confirmation reply verbatim; only an affirmative reply (yes, نعم, تأكيد) places the order. Returns the order reference on success.",
	}, func(ctx tool.Context, input ConfirmOrderInput) (StepOutput, error) {
		return deps.confirmOrder(context.Background(), input), nil
	})
}

func createOrderStatusTool(deps *ToolDependencies) (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        toolOrderStatus,
		Description: "Looks up a placed order for this visitor. Pass the reference number if the visitor gave one; without arguments it returns their most recent order.",
	}, func(ctx tool.Context, input OrderStatusInput) (OrderStatusOutput, error) {
		return deps.orderStatus(context.Background(), input), nil
	})
}

// buildTools creates the full toolset for the concierge agent.
func buildTools(deps *ToolDependencies) ([]tool.Tool, error) {
	builders := []struct {
		name   string
		create func(*ToolDependencies) (tool.Tool, error)
	}{
		{toolSearchKnowledge, createSearchKnowledgeTool},
		{toolAvailableServices, createAvailableServicesTool},
		{toolSelectService, createSelectServiceTool},
		{toolCollectName, createCollectNameTool},
		{toolCollectAge, createCollectAgeTool},
		{toolCollectID, createCollectIDTool},
		{toolCollectPhone, createCollectPhoneTool},
		{toolMarkImage, createMarkImageUploadedTool},
		{toolVerifyImage, createVerifyImageTool},
		{toolCheckStatus, createCheckStatusTool},
		{toolValidateData, createValidateDataTool},
		{toolConfirmOrder, createConfirmOrderTool},
		{toolOrderStatus, createOrderStatusTool},
	}

	tools := make([]tool.Tool, 0, len(builders))
	for _, b := range builders {
		t, err := b.create(deps)
		if err != nil {
			return nil, fmt.Errorf("%s tool: %w", b.name, err)
		}
		tools = append(tools, t)
	}
	return tools, nil
}

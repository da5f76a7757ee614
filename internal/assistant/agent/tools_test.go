package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	catalogtransport "concierge_backend/internal/catalog/transport"
	knowledgeservice "concierge_backend/internal/knowledge/service"
	knowledgetransport "concierge_backend/internal/knowledge/transport"
	"concierge_backend/internal/orders/domain"
	orderstransport "concierge_backend/internal/orders/transport"
	"concierge_backend/platform/apperr"
	"concierge_backend/platform/logger"
)

var (
	testTenant  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testVisitor = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type fakeKnowledge struct {
	snippets  []knowledgetransport.Snippet
	err       error
	lastQuery string
	lastLimit int
}

func (f *fakeKnowledge) Search(ctx context.Context, tenantID uuid.UUID, rawQuery string, limit int, meta knowledgeservice.ClientMeta) ([]knowledgetransport.Snippet, error) {
	f.lastQuery = rawQuery
	f.lastLimit = limit
	return f.snippets, f.err
}

type fakeCatalog struct {
	list catalogtransport.ServiceListResponse
	err  error
}

func (f *fakeCatalog) ListOrderable(ctx context.Context, tenantID uuid.UUID) (catalogtransport.ServiceListResponse, error) {
	return f.list, f.err
}

type fakeOrders struct {
	res    orderstransport.StepResult
	err    error
	status orderstransport.OrderStatusResponse

	lastServiceID    uuid.UUID
	lastField        domain.Field
	lastRaw          string
	lastFileKey      string
	lastConfirmation string
	lastReference    string
	calls            []string
}

func (f *fakeOrders) SelectService(ctx context.Context, tenantID, visitorID, serviceID uuid.UUID) (orderstransport.StepResult, error) {
	f.calls = append(f.calls, "select")
	f.lastServiceID = serviceID
	return f.res, f.err
}

func (f *fakeOrders) Collect(ctx context.Context, tenantID, visitorID uuid.UUID, field domain.Field, raw string) (orderstransport.StepResult, error) {
	f.calls = append(f.calls, "collect")
	f.lastField = field
	f.lastRaw = raw
	return f.res, f.err
}

func (f *fakeOrders) MarkImageUploaded(ctx context.Context, tenantID, visitorID uuid.UUID, fileKey string) (orderstransport.StepResult, error) {
	f.calls = append(f.calls, "mark")
	f.lastFileKey = fileKey
	return f.res, f.err
}

func (f *fakeOrders) VerifyImageUpload(ctx context.Context, tenantID, visitorID uuid.UUID) (orderstransport.StepResult, error) {
	f.calls = append(f.calls, "verify")
	return f.res, f.err
}

func (f *fakeOrders) Status(ctx context.Context, tenantID, visitorID uuid.UUID) (orderstransport.StepResult, error) {
	f.calls = append(f.calls, "status")
	return f.res, f.err
}

func (f *fakeOrders) Validate(ctx context.Context, tenantID, visitorID uuid.UUID) (orderstransport.StepResult, error) {
	f.calls = append(f.calls, "validate")
	return f.res, f.err
}

func (f *fakeOrders) ConfirmOrder(ctx context.Context, tenantID, visitorID uuid.UUID, confirmationText string) (orderstransport.StepResult, error) {
	f.calls = append(f.calls, "confirm")
	f.lastConfirmation = confirmationText
	return f.res, f.err
}

func (f *fakeOrders) GetOrderStatus(ctx context.Context, tenantID, visitorID uuid.UUID, reference string) (orderstransport.OrderStatusResponse, error) {
	f.calls = append(f.calls, "order_status")
	f.lastReference = reference
	return f.status, f.err
}

func newTestDeps() (*ToolDependencies, *fakeKnowledge, *fakeCatalog, *fakeOrders) {
	knowledge := &fakeKnowledge{}
	catalog := &fakeCatalog{}
	orders := &fakeOrders{}
	deps := &ToolDependencies{
		Knowledge: knowledge,
		Catalog:   catalog,
		Orders:    orders,
		Log:       logger.New("development"),
	}
	deps.SetIdentity(testTenant, testVisitor)
	return deps, knowledge, catalog, orders
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation passes through", apperr.Validation("Age must be between 18 and 120."), "Age must be between 18 and 120."},
		{"gone passes through", apperr.Gone("No active service order session. Please select a service first."), "No active service order session. Please select a service first."},
		{"conflict passes through", apperr.Conflict("Another step of your order is still being processed. Please try again."), "Another step of your order is still being processed. Please try again."},
		{"not found passes through", apperr.NotFound("Order not found."), "Order not found."},
		{"internal hidden", apperr.Wrap(apperr.KindInternal, "query orders: connection refused", errors.New("connection refused")), msgGenericFailure},
		{"plain error hidden", errors.New("pq: deadlock detected"), msgGenericFailure},
	}

	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("%s: userMessage() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestToolsRequireIdentity(t *testing.T) {
	deps := &ToolDependencies{
		Knowledge: &fakeKnowledge{},
		Catalog:   &fakeCatalog{},
		Orders:    &fakeOrders{},
		Log:       logger.New("development"),
	}

	ctx := context.Background()
	outputs := []StepOutput{
		deps.selectService(ctx, SelectServiceInput{ServiceID: uuid.NewString()}),
		deps.collect(ctx, toolCollectName, domain.FieldName, "Ahmed Ali"),
		deps.markImageUploaded(ctx, MarkImageUploadedInput{}),
		deps.verifyImage(ctx),
		deps.checkStatus(ctx),
		deps.validateData(ctx),
		deps.confirmOrder(ctx, ConfirmOrderInput{Confirmation: "yes"}),
	}
	for i, out := range outputs {
		if out.Status != orderstransport.StatusError || out.Message != msgMissingIdentity {
			t.Errorf("output %d without identity = %+v, want error envelope", i, out)
		}
	}

	if search := deps.searchKnowledge(ctx, SearchKnowledgeInput{Query: "hours"}); search.Status != orderstransport.StatusError {
		t.Errorf("searchKnowledge without identity status = %q", search.Status)
	}
	if services := deps.availableServices(ctx); services.Status != orderstransport.StatusError {
		t.Errorf("availableServices without identity status = %q", services.Status)
	}
}

func TestSearchKnowledgeShapesSnippets(t *testing.T) {
	deps, knowledge, _, _ := newTestDeps()
	knowledge.snippets = []knowledgetransport.Snippet{
		{ID: uuid.New(), Title: "Coverage types", Content: "Comprehensive covers...", ArticleType: "faq", Category: "FAQ"},
		{ID: uuid.New(), Title: "Claims", Content: "File within 30 days.", ArticleType: "article"},
	}

	out := deps.searchKnowledge(context.Background(), SearchKnowledgeInput{Query: "what does insurance cover", Limit: 10})
	if out.Status != orderstransport.StatusSuccess {
		t.Fatalf("status = %q, want success", out.Status)
	}
	if len(out.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(out.Results))
	}
	if out.Results[0].Title != "Coverage types" || out.Results[0].Type != "faq" || out.Results[0].Category != "FAQ" {
		t.Errorf("first result not mapped: %+v", out.Results[0])
	}
	if knowledge.lastLimit != 10 {
		t.Errorf("limit = %d, want 10", knowledge.lastLimit)
	}
}

func TestSearchKnowledgeDefaultsLimit(t *testing.T) {
	deps, knowledge, _, _ := newTestDeps()

	out := deps.searchKnowledge(context.Background(), SearchKnowledgeInput{Query: "opening hours"})
	if knowledge.lastLimit != defaultSearchLimit {
		t.Errorf("limit = %d, want %d", knowledge.lastLimit, defaultSearchLimit)
	}
	if out.Status != orderstransport.StatusSuccess || out.Message == "" {
		t.Errorf("empty search = %+v, want success with a no-results message", out)
	}
}

func TestSearchKnowledgeNoResultsFollowsLanguage(t *testing.T) {
	deps, _, _, _ := newTestDeps()

	en := deps.searchKnowledge(context.Background(), SearchKnowledgeInput{Query: "opening hours"})
	if en.Message != msgNoArticlesEN {
		t.Errorf("english query message = %q, want %q", en.Message, msgNoArticlesEN)
	}

	ar := deps.searchKnowledge(context.Background(), SearchKnowledgeInput{Query: "ما هي مواعيد العمل"})
	if ar.Message != msgNoArticlesAR {
		t.Errorf("arabic query message = %q, want %q", ar.Message, msgNoArticlesAR)
	}
}

func TestAvailableServicesMapsCatalog(t *testing.T) {
	deps, _, catalog, _ := newTestDeps()
	price := 250.0
	id := uuid.New()
	catalog.list = catalogtransport.ServiceListResponse{
		Items: []catalogtransport.ServiceResponse{
			{ID: id, Name: "Account Renewal", Description: "Annual renewal", Price: &price},
		},
		Total: 1,
	}

	out := deps.availableServices(context.Background())
	if out.Status != orderstransport.StatusSuccess {
		t.Fatalf("status = %q, want success", out.Status)
	}
	if len(out.Services) != 1 || out.Services[0].ID != id.String() || out.Services[0].Name != "Account Renewal" {
		t.Errorf("services not mapped: %+v", out.Services)
	}
	if out.Services[0].Price == nil || *out.Services[0].Price != 250.0 {
		t.Errorf("price not mapped: %+v", out.Services[0].Price)
	}
}

func TestAvailableServicesEmpty(t *testing.T) {
	deps, _, _, _ := newTestDeps()

	out := deps.availableServices(context.Background())
	if out.Status != orderstransport.StatusSuccess || out.Message == "" {
		t.Errorf("empty catalog = %+v, want success with message", out)
	}
}

func TestSelectServiceRejectsBadID(t *testing.T) {
	deps, _, _, orders := newTestDeps()

	out := deps.selectService(context.Background(), SelectServiceInput{ServiceID: "service-7"})
	if out.Status != orderstransport.StatusError {
		t.Fatalf("status = %q, want error", out.Status)
	}
	if !strings.Contains(out.Message, "get_available_services") {
		t.Errorf("message %q should point back to get_available_services", out.Message)
	}
	if len(orders.calls) != 0 {
		t.Errorf("orders service called %v for an unparseable id", orders.calls)
	}
}

func TestSelectServiceForwardsResult(t *testing.T) {
	deps, _, _, orders := newTestDeps()
	serviceID := uuid.New()
	orders.res = orderstransport.StepResult{
		Status:        orderstransport.StatusSuccess,
		Message:       "Service order session started for Account Renewal.",
		MissingFields: []string{"name", "age", "id", "phone", "image"},
		NextStep:      "collect_name",
	}

	out := deps.selectService(context.Background(), SelectServiceInput{ServiceID: serviceID.String()})
	if out.Status != orderstransport.StatusSuccess || out.NextStep != "collect_name" {
		t.Errorf("envelope = %+v", out)
	}
	if len(out.MissingFields) != 5 {
		t.Errorf("missing fields = %v", out.MissingFields)
	}
	if orders.lastServiceID != serviceID {
		t.Errorf("service id = %s, want %s", orders.lastServiceID, serviceID)
	}
}

func TestCollectTranslatesDomainErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"validation", apperr.Validation("ID number must be exactly 10 digits."), "ID number must be exactly 10 digits."},
		{"no session", apperr.Gone("No active service order session. Please select a service first."), "No active service order session. Please select a service first."},
		{"lock busy", apperr.Conflict("Another step of your order is still being processed. Please try again."), "Another step of your order is still being processed. Please try again."},
		{"storage down", apperr.Wrap(apperr.KindInternal, "update session", errors.New("timeout")), msgGenericFailure},
	}

	for _, tt := range tests {
		deps, _, _, orders := newTestDeps()
		orders.err = tt.err

		out := deps.collect(context.Background(), toolCollectID, domain.FieldID, "12345")
		if out.Status != orderstransport.StatusError {
			t.Errorf("%s: status = %q, want error", tt.name, out.Status)
		}
		if out.Message != tt.wantMsg {
			t.Errorf("%s: message = %q, want %q", tt.name, out.Message, tt.wantMsg)
		}
	}
}

func TestCollectForwardsFieldAndValue(t *testing.T) {
	deps, _, _, orders := newTestDeps()
	orders.res = orderstransport.StepResult{
		Status:   orderstransport.StatusSuccess,
		Message:  "Your phone number has been recorded.",
		NextStep: "collect_image",
	}

	out := deps.collect(context.Background(), toolCollectPhone, domain.FieldPhone, "05 1234-5678")
	if orders.lastField != domain.FieldPhone || orders.lastRaw != "05 1234-5678" {
		t.Errorf("collect forwarded (%s, %q)", orders.lastField, orders.lastRaw)
	}
	if out.NextStep != "collect_image" {
		t.Errorf("next step = %q", out.NextStep)
	}
}

func TestConfirmOrderForwardsEnvelope(t *testing.T) {
	deps, _, _, orders := newTestDeps()
	age := 30
	orders.res = orderstransport.StepResult{
		Status:    orderstransport.StatusSuccess,
		Message:   "Order confirmed! Your reference number is SO-1A2B3C4D.",
		Reference: "SO-1A2B3C4D",
		Collected: &orderstransport.CollectedData{
			Service:       "Account Renewal",
			Name:          "Ahmed Ali",
			Age:           &age,
			ImageUploaded: true,
			ImageVerified: true,
		},
	}

	out := deps.confirmOrder(context.Background(), ConfirmOrderInput{Confirmation: "نعم"})
	if orders.lastConfirmation != "نعم" {
		t.Errorf("confirmation = %q", orders.lastConfirmation)
	}
	if out.Reference != "SO-1A2B3C4D" {
		t.Errorf("reference = %q", out.Reference)
	}
	if out.Collected == nil || out.Collected.Name != "Ahmed Ali" || out.Collected.Age == nil || *out.Collected.Age != 30 {
		t.Errorf("collected = %+v", out.Collected)
	}
}

func TestConfirmOrderCancelledPassesThrough(t *testing.T) {
	deps, _, _, orders := newTestDeps()
	orders.res = orderstransport.StepResult{
		Status:  orderstransport.StatusCancelled,
		Message: "Order cancelled. Say 'yes' or 'تأكيد' to confirm your order.",
	}

	out := deps.confirmOrder(context.Background(), ConfirmOrderInput{Confirmation: "maybe later"})
	if out.Status != orderstransport.StatusCancelled {
		t.Errorf("status = %q, want cancelled", out.Status)
	}
}

func TestOrderStatusMapsResponse(t *testing.T) {
	deps, _, _, orders := newTestDeps()
	orders.status = orderstransport.OrderStatusResponse{
		Reference:   "SO-1A2B3C4D",
		ServiceName: "Account Renewal",
		Status:      "under_review",
		ConfirmedAt: "2026-08-24T10:00:00Z",
	}

	out := deps.orderStatus(context.Background(), OrderStatusInput{OrderNumber: "SO-1A2B3C4D"})
	if out.Status != orderstransport.StatusSuccess {
		t.Fatalf("status = %q, want success", out.Status)
	}
	if out.Reference != "SO-1A2B3C4D" || out.OrderStatus != "under_review" || out.ServiceName != "Account Renewal" {
		t.Errorf("output = %+v", out)
	}
	if orders.lastReference != "SO-1A2B3C4D" {
		t.Errorf("reference forwarded = %q", orders.lastReference)
	}
}

func TestOrderStatusNotFound(t *testing.T) {
	deps, _, _, orders := newTestDeps()
	orders.err = apperr.NotFound("Order not found.")

	out := deps.orderStatus(context.Background(), OrderStatusInput{})
	if out.Status != orderstransport.StatusError || out.Message != "Order not found." {
		t.Errorf("output = %+v", out)
	}
}

func TestMarkImageUploadedForwardsKey(t *testing.T) {
	deps, _, _, orders := newTestDeps()
	orders.res = orderstransport.StepResult{Status: orderstransport.StatusSuccess, Message: "Image upload recorded."}

	deps.markImageUploaded(context.Background(), MarkImageUploadedInput{FileKey: "tenant/visitor/id.jpg"})
	if orders.lastFileKey != "tenant/visitor/id.jpg" {
		t.Errorf("file key = %q", orders.lastFileKey)
	}
}

func TestBuildToolsCoversAllOperations(t *testing.T) {
	deps, _, _, _ := newTestDeps()

	tools, err := buildTools(deps)
	if err != nil {
		t.Fatalf("buildTools() error = %v", err)
	}
	if len(tools) != 13 {
		t.Errorf("built %d tools, want 13", len(tools))
	}
}

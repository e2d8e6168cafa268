package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-bizpos/internal/database"
	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

const (
	defaultModel = "gemini-2.0-flash-001"
	maxToolRound = 5
)

// Backend is the data the assistant may read and the few writes it may do.
type Backend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListServices(ctx context.Context, activeOnly bool) ([]models.Service, error)
	UpdateProduct(ctx context.Context, id uint, fields map[string]any) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product, employeeID uint) error
	SalesReport(ctx context.Context, start, end time.Time) (*database.SalesReport, error)
}

// Agent is a Gemini chat session with tool access to the shop.
type Agent struct {
	apiKey  string
	model   string
	backend Backend
	ledger  *pos.Ledger
}

func NewAgent(apiKey string, backend Backend, ledger *pos.Ledger) *Agent {
	return &Agent{apiKey: apiKey, model: defaultModel, backend: backend, ledger: ledger}
}

// Ask runs one question through the model, answering its tool calls until
// it replies with text.
func (a *Agent) Ask(ctx context.Context, op pos.Operator, userMessage string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = Tools()
	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(a.prompt(op, userMessage)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRound; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return textOf(resp), nil
		}
		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: a.CallTool(ctx, op, call)})
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}
	return "", errors.New("assistant kept calling tools without answering")
}

func (a *Agent) prompt(op pos.Operator, userMessage string) string {
	today := a.ledger.BusinessDay(a.ledger.Now())
	return fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a small shop's point of sale. You are talking to %s.

	RULES:
	1. UPDATE: If a user asks to update a product by NAME (e.g. "Update Banana price"), you must NOT ask them for the ID. Instead:
	   - Call 'check_inventory' to find the ID.
	   - Call 'update_product_price' using that ID.

	2. READ: If a user asks for PRICE, COST, STOCK, or DETAILS of a product or service:
	   - You MUST call 'check_inventory' to get the full list.
	   - Then read the JSON to find the specific item and answer the user.

	3. SALES: If the user asks for sales/revenue, use 'get_sales_report'.

	4. CASH: If the user asks about a cash register, the drawer or closing, use 'get_register_summary'.

	USER: %s`, today, op.Name, userMessage)
}

// Tools declares every function the model may call.
func Tools() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full product and service list. Use this to find ANY product details like ID, Name, Price, Cost, or Stock.",
			},
			{
				Name:        "update_product_price",
				Description: "Update the price of a specific product using its ID",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
						"new_price":  {Type: genai.TypeNumber, Description: "New price"},
					},
					Required: []string{"product_id", "new_price"},
				},
			},
			{
				Name:        "create_product",
				Description: "Add a new product to the inventory",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":           {Type: genai.TypeString, Description: "Name of the product"},
						"price":          {Type: genai.TypeNumber, Description: "Price of the product"},
						"category":       {Type: genai.TypeString, Description: "Category (Food, Drink, etc)"},
						"stock_quantity": {Type: genai.TypeInteger, Description: "Initial stock count"},
					},
					Required: []string{"name", "price", "category", "stock_quantity"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get sales revenue, order count and payment breakdown for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name:        "get_register_summary",
				Description: "Get the cash registers of one day: opening float, sales per payment method, status and closing amounts.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date":        {Type: genai.TypeString, Description: "Day (YYYY-MM-DD), defaults to today"},
						"employee_id": {Type: genai.TypeInteger, Description: "Employee ID, defaults to the current user"},
					},
				},
			},
		},
	}}
}

// CallTool runs one function call. Failures are reported back to the model
// as {"error": ...} so it can explain them.
func (a *Agent) CallTool(ctx context.Context, op pos.Operator, call genai.FunctionCall) map[string]any {
	var (
		out map[string]any
		err error
	)
	switch call.Name {
	case "check_inventory":
		out, err = a.checkInventory(ctx)
	case "update_product_price":
		out, err = a.updatePrice(ctx, call.Args)
	case "create_product":
		out, err = a.createProduct(ctx, op, call.Args)
	case "get_sales_report":
		out, err = a.salesReport(ctx, call.Args)
	case "get_register_summary":
		out, err = a.registerSummary(ctx, op, call.Args)
	default:
		err = fmt.Errorf("unknown tool %q", call.Name)
	}
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return out
}

func (a *Agent) checkInventory(ctx context.Context) (map[string]any, error) {
	products, err := a.backend.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	services, err := a.backend.ListServices(ctx, true)
	if err != nil {
		return nil, err
	}

	type simpleItem struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Stock int    `json:"stock,omitempty"`
		Price string `json:"price"`
		Cost  string `json:"cost,omitempty"`
	}
	productList := make([]simpleItem, 0, len(products))
	for _, p := range products {
		productList = append(productList, simpleItem{
			ID: p.ID, Name: p.Name, Stock: p.CurrentStock,
			Price: p.Price.StringFixed(2), Cost: p.CostPrice.StringFixed(2),
		})
	}
	serviceList := make([]simpleItem, 0, len(services))
	for _, s := range services {
		serviceList = append(serviceList, simpleItem{ID: s.ID, Name: s.Name, Price: s.Price.StringFixed(2)})
	}
	return map[string]any{"products": productList, "services": serviceList}, nil
}

func (a *Agent) updatePrice(ctx context.Context, args map[string]any) (map[string]any, error) {
	id, err := intArg(args, "product_id")
	if err != nil {
		return nil, err
	}
	price, err := decimalArg(args, "new_price")
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, errors.New("new_price must be positive")
	}

	p, err := a.backend.UpdateProduct(ctx, uint(id), map[string]any{"price": price})
	if err != nil {
		if errors.Is(err, pos.ErrNotFound) {
			return map[string]any{"status": "Product ID not found"}, nil
		}
		return nil, err
	}
	return map[string]any{"status": "Success", "name": p.Name, "new_price": p.Price.StringFixed(2)}, nil
}

func (a *Agent) createProduct(ctx context.Context, op pos.Operator, args map[string]any) (map[string]any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	price, err := decimalArg(args, "price")
	if err != nil {
		return nil, err
	}
	stock, err := intArg(args, "stock_quantity")
	if err != nil {
		return nil, err
	}
	category, _ := stringArg(args, "category")

	p := models.Product{Name: name, Price: price, Category: category, CurrentStock: stock}
	if err := a.backend.CreateProduct(ctx, &p, op.ID); err != nil {
		return nil, err
	}
	return map[string]any{"status": "created", "id": p.ID}, nil
}

func (a *Agent) salesReport(ctx context.Context, args map[string]any) (map[string]any, error) {
	start, err := a.dayArg(args, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := a.dayArg(args, "end_date")
	if err != nil {
		return nil, err
	}

	report, err := a.backend.SalesReport(ctx, start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}
	byPayment := map[string]string{}
	for _, b := range report.ByPayment {
		byPayment[b.PaymentMethod] = b.Total.StringFixed(2)
	}
	top := make([]string, 0, len(report.TopSelling))
	for _, t := range report.TopSelling {
		top = append(top, fmt.Sprintf("%s (%d sold)", t.Name, t.Sold))
	}
	return map[string]any{
		"revenue":     report.TotalRevenue.StringFixed(2),
		"sales_count": report.TotalOrders,
		"by_payment":  byPayment,
		"top_selling": top,
	}, nil
}

func (a *Agent) registerSummary(ctx context.Context, op pos.Operator, args map[string]any) (map[string]any, error) {
	day := a.ledger.Now()
	if _, ok := args["date"]; ok {
		d, err := a.dayArg(args, "date")
		if err != nil {
			return nil, err
		}
		day = d
	}
	var employeeID uint
	if _, ok := args["employee_id"]; ok {
		id, err := intArg(args, "employee_id")
		if err != nil {
			return nil, err
		}
		employeeID = uint(id)
	}

	regs, err := a.ledger.History(ctx, op, employeeID, day, day)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return map[string]any{"status": "No cash register for " + a.ledger.BusinessDay(day)}, nil
	}

	out := make([]map[string]any, 0, len(regs))
	for _, r := range regs {
		payments := map[string]string{}
		for m, v := range r.TotalPayments {
			payments[string(m)] = v.StringFixed(2)
		}
		row := map[string]any{
			"employee":       r.EmployeeName,
			"date":           r.Date,
			"status":         string(r.Status),
			"opening_amount": r.OpeningAmount.StringFixed(2),
			"total_sales":    r.TotalSales.StringFixed(2),
			"payments":       payments,
			"expected":       r.Expected().StringFixed(2),
		}
		if r.ClosingAmount != nil {
			row["closing_amount"] = r.ClosingAmount.StringFixed(2)
			row["difference"] = r.Difference().StringFixed(2)
		}
		out = append(out, row)
	}
	return map[string]any{"registers": out}, nil
}

func (a *Agent) dayArg(args map[string]any, key string) (time.Time, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(pos.BusinessDayLayout, s, a.ledger.Now().Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be in YYYY-MM-DD format", key)
	}
	return t, nil
}

func stringArg(args map[string]any, key string) (string, error) {
	s, ok := args[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return strings.TrimSpace(s), nil
}

// Numbers arrive as float64 from the model's JSON.
func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("missing %s", key)
	}
}

func decimalArg(args map[string]any, key string) (decimal.Decimal, error) {
	switch v := args[key].(type) {
	case float64:
		return decimal.NewFromFloat(v).Round(2), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid %s", key)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("missing %s", key)
	}
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I completed the action."
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}

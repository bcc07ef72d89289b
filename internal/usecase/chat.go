package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shop-assistant/internal/catalog"
	"shop-assistant/internal/currency"
	"shop-assistant/internal/domain"
	"shop-assistant/internal/logger"
	"shop-assistant/internal/metrics"
)

const (
	roundPlan   = "plan"
	roundAnswer = "answer"
)

type LLMClient interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage, functions []domain.FunctionDefinition) (domain.Completion, error)
}

type ProductSource interface {
	Load(ctx context.Context) ([]domain.ProductRecord, error)
}

type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (string, error)
}

// ChatService answers one enquiry with at most two completion calls: a plan
// call that may select a function, and an answer call that narrates the
// function result.
type ChatService struct {
	llm       LLMClient
	products  ProductSource
	converter CurrencyConverter
	model     string
	functions *functionRegistry
}

func NewChatService(llm LLMClient, products ProductSource, converter CurrencyConverter, model string) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if products == nil {
		return nil, errors.New("usecase: product source must not be nil")
	}
	if converter == nil {
		return nil, errors.New("usecase: currency converter must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	functions, err := newFunctionRegistry()
	if err != nil {
		return nil, err
	}
	return &ChatService{
		llm:       llm,
		products:  products,
		converter: converter,
		model:     model,
		functions: functions,
	}, nil
}

// Handle runs the plan, execute and narrate sequence for a single enquiry.
func (s *ChatService) Handle(ctx context.Context, enquiry string) (string, error) {
	log := logger.FromContext(ctx)
	if strings.TrimSpace(enquiry) == "" {
		return "", s.fail(ctx, newError(ErrorInvalidInput, "empty_enquiry", nil))
	}

	plan, err := s.llm.Complete(ctx, s.model, buildPlanMessages(enquiry), s.functions.definitions())
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(roundPlan, "error").Inc()
		return "", s.fail(ctx, newError(ErrorUpstream, "openai_plan_error", err))
	}
	metrics.CompletionRequestsTotal.WithLabelValues(roundPlan, "success").Inc()

	if plan.FunctionCall == nil {
		log.Debug("model answered without a function call")
		return plan.Content, nil
	}

	name, ok := parseFunctionName(plan.FunctionCall.Name)
	if !ok {
		metrics.FunctionCallsTotal.WithLabelValues("unknown", "error").Inc()
		return "", s.fail(ctx, newError(ErrorUnknownFunction, "unknown_function",
			fmt.Errorf("model selected %q", plan.FunctionCall.Name)))
	}
	log.Info("model selected function", zap.String("function", string(name)))

	result, err := s.execute(ctx, name, plan.FunctionCall.Arguments)
	if err != nil {
		metrics.FunctionCallsTotal.WithLabelValues(string(name), "error").Inc()
		return "", s.fail(ctx, err)
	}
	metrics.FunctionCallsTotal.WithLabelValues(string(name), "success").Inc()

	answer, err := s.llm.Complete(ctx, s.model, buildAnswerMessages(enquiry, name, result), nil)
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(roundAnswer, "error").Inc()
		return "", s.fail(ctx, newError(ErrorUpstream, "openai_answer_error", err))
	}
	metrics.CompletionRequestsTotal.WithLabelValues(roundAnswer, "success").Inc()

	return answer.Content, nil
}

// execute decodes the typed arguments for name and runs the matching function.
// The returned string is the result as shown to the model.
func (s *ChatService) execute(ctx context.Context, name FunctionName, rawArgs string) (string, error) {
	switch name {
	case FunctionSearchProducts:
		var args searchProductsArgs
		if err := s.functions.decode(name, rawArgs, &args); err != nil {
			return "", argumentsError(err)
		}
		return s.searchProducts(ctx, args)
	case FunctionConvertCurrencies:
		var args convertCurrenciesArgs
		if err := s.functions.decode(name, rawArgs, &args); err != nil {
			return "", argumentsError(err)
		}
		return s.convertCurrencies(ctx, args)
	default:
		return "", newError(ErrorUnknownFunction, "unknown_function", fmt.Errorf("no handler for %q", name))
	}
}

func (s *ChatService) searchProducts(ctx context.Context, args searchProductsArgs) (string, error) {
	records, err := s.products.Load(ctx)
	if err != nil {
		return "", newError(ErrorUpstream, "catalog_load_error", err)
	}
	matches := matchProducts(records, args.Query)

	raw, err := json.Marshal(matches)
	if err != nil {
		return "", newError(ErrorInternal, "result_encode_error", err)
	}
	return string(raw), nil
}

func (s *ChatService) convertCurrencies(ctx context.Context, args convertCurrenciesArgs) (string, error) {
	out, err := s.converter.Convert(ctx, args.Amount, args.FromCurrency, args.ToCurrency)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, currency.ErrMissingAPIKey):
		return "", newError(ErrorConfiguration, "missing_rate_api_key", err)
	case errors.Is(err, currency.ErrUnknownCurrency):
		return "", newError(ErrorUpstream, "unknown_currency", err)
	default:
		return "", newError(ErrorUpstream, "rate_fetch_error", err)
	}
}

func argumentsError(err error) *Error {
	if errors.Is(err, errInvalidArgumentsJSON) {
		return newError(ErrorMalformedArguments, "invalid_arguments_json", err)
	}
	return newError(ErrorMalformedArguments, "arguments_schema_mismatch", err)
}

// fail logs err at the point of occurrence and returns it unchanged.
func (s *ChatService) fail(ctx context.Context, err error) error {
	fields := []zap.Field{zap.Error(err)}
	var ucErr *Error
	if errors.As(err, &ucErr) {
		fields = append(fields, zap.String("code", string(ucErr.Code)), zap.String("reason", ucErr.Reason))
	}
	logger.FromContext(ctx).Error("chat request failed", fields...)
	return err
}

var matchProducts = catalog.Search

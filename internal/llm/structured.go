package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/knoguchi/rankeval/internal/metrics"
)

// StructuredInvoker turns a prompt into a value of a fixed schema.
// out must be a pointer to a struct; on success it has been decoded and validated.
type StructuredInvoker interface {
	InvokeStructured(ctx context.Context, prompt string, out any) error
}

// FreeformDecoder is implemented by schemas that can be recovered from
// non-JSON model text (for example a bare number).
type FreeformDecoder interface {
	DecodeFreeform(text string) error
}

// StructuredOptions configures a Structured invoker.
type StructuredOptions struct {
	Generate GenerateOptions

	// Timeout bounds a single provider call. Zero leaves it to the provider client.
	Timeout time.Duration
}

// Structured implements StructuredInvoker on top of any LLM.
type Structured struct {
	client   LLM
	opts     StructuredOptions
	validate *validator.Validate
}

// NewStructured wraps client so it can produce schema instances.
func NewStructured(client LLM, opts StructuredOptions) *Structured {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Structured{
		client:   client,
		opts:     opts,
		validate: validate,
	}
}

// InvokeStructured generates a completion in JSON mode and decodes it into out.
// Provider failures wrap ErrProvider; schema mismatches wrap ErrParse.
func (s *Structured) InvokeStructured(ctx context.Context, prompt string, out any) error {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	genOpts := s.opts.Generate
	genOpts.JSON = true

	start := time.Now()
	text, err := s.client.Generate(ctx, prompt, genOpts)
	if err != nil {
		metrics.ObserveLLMCall(s.client.Name(), "provider_error", time.Since(start).Seconds())
		if !errors.Is(err, ErrProvider) {
			err = fmt.Errorf("%w: %v", ErrProvider, err)
		}
		return err
	}

	if err := s.decode(text, out); err != nil {
		metrics.ObserveLLMCall(s.client.Name(), "parse_error", time.Since(start).Seconds())
		return err
	}

	metrics.ObserveLLMCall(s.client.Name(), "ok", time.Since(start).Seconds())
	return nil
}

func (s *Structured) decode(text string, out any) error {
	jsonErr := json.Unmarshal([]byte(ExtractJSON(text)), out)
	if jsonErr == nil {
		if jsonErr = s.validate.Struct(out); jsonErr == nil {
			return nil
		}
	}

	if fd, ok := out.(FreeformDecoder); ok {
		if err := fd.DecodeFreeform(text); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: %v", ErrParse, jsonErr)
}

// ExtractJSON isolates the JSON object in a model response. It strips markdown
// code fences and, failing that, trims to the outermost braces.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	}

	response = strings.TrimSpace(response)

	if !strings.HasPrefix(response, "{") {
		first := strings.Index(response, "{")
		last := strings.LastIndex(response, "}")
		if first != -1 && last > first {
			response = response[first : last+1]
		}
	}

	return response
}

// Ensure Structured implements StructuredInvoker.
var _ StructuredInvoker = (*Structured)(nil)

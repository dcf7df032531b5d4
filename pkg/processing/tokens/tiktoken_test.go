package tokens

import (
	"errors"
	"testing"

	"github.com/pkoukk/tiktoken-go"

	"mercator-hq/gateway/pkg/providers"
)

func TestTiktokenEstimator_FallsBackWhenUnavailable(t *testing.T) {
	simple := NewSimpleEstimator(testTokensConfig())
	estimator := NewTiktokenEstimator(simple)

	var loads []string
	estimator.load = func(model string) (*tiktoken.Tiktoken, error) {
		loads = append(loads, model)
		return nil, errors.New("vocabulary unavailable")
	}

	got, err := estimator.EstimateText("Hello, world!", "gpt-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := simple.EstimateText("Hello, world!", "gpt-4")
	if got != want {
		t.Errorf("expected fallback estimate %d, got %d", want, got)
	}

	// The requested model, then the fallback encoding model.
	if len(loads) != 2 || loads[0] != "gpt-4" || loads[1] != fallbackEncodingModel {
		t.Errorf("unexpected load attempts %v", loads)
	}

	// A failed model is not retried.
	msgs := []providers.Message{{Role: providers.RoleUser, Content: "12345678"}}
	got, err = estimator.EstimateMessages(msgs, "gpt-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9 {
		t.Errorf("expected fallback message estimate 9, got %d", got)
	}
	if len(loads) != 2 {
		t.Errorf("expected no further loads, got %v", loads)
	}
}

func TestTiktokenEstimator_EmptyInput(t *testing.T) {
	estimator := NewTiktokenEstimator(NewSimpleEstimator(nil))
	estimator.load = func(string) (*tiktoken.Tiktoken, error) {
		t.Fatal("empty input must not load an encoding")
		return nil, nil
	}

	if n, _ := estimator.EstimateText("", "gpt-4"); n != 0 {
		t.Errorf("expected 0 tokens, got %d", n)
	}
	if n, _ := estimator.EstimateMessages(nil, "gpt-4"); n != 0 {
		t.Errorf("expected 0 tokens, got %d", n)
	}
}

// TestTiktokenEstimator_RealEncoding needs the cl100k vocabulary, which
// tiktoken-go downloads on first use.
func TestTiktokenEstimator_RealEncoding(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping encoding download in short mode")
	}
	if _, err := tiktoken.EncodingForModel("gpt-4"); err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	estimator := NewTiktokenEstimator(NewSimpleEstimator(nil))
	n, err := estimator.EstimateText("Hello, world!", "gpt-4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 tokens for %q, got %d", "Hello, world!", n)
	}
}

package tokens

import (
	"testing"

	"github.com/joss/promptsmith/internal/domain"
)

func TestCount(t *testing.T) {
	if got := Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}

	got := Count("Evaluate and expand the role dimension of the prompt.")
	if got < 5 || got > 20 {
		t.Errorf("Count() = %d, want a plausible token count", got)
	}
}

func TestCountMonotonicInLength(t *testing.T) {
	short := Count("one two three")
	long := Count("one two three four five six seven eight nine ten")
	if long <= short {
		t.Errorf("Count(long) = %d, Count(short) = %d, want long > short", long, short)
	}
}

func TestProjectCost(t *testing.T) {
	model := domain.ModelPricing{ID: "m", InputCost: 3, OutputCost: 15}

	if got := ProjectCost("", model); got != 0 {
		t.Errorf("ProjectCost(\"\") = %f, want 0", got)
	}
	if got := ProjectCost("a reasonably sized prompt with several words in it", model); got <= 0 {
		t.Errorf("ProjectCost() = %f, want > 0", got)
	}
}

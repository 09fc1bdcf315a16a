package shared_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/pane-mirror/internal/transfer"
	"github.com/joe/pane-mirror/internal/tui/shared"
	pmerrors "github.com/joe/pane-mirror/pkg/errors"
)

func TestRenderErrorList_ShowsFailuresWithSuggestions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	enriched := pmerrors.NewEnricher().Enrich(errors.New("permission denied"), "/srv/a.txt")
	result := &transfer.BatchResult{Items: []transfer.ItemResult{
		{Source: "/local/ok.txt", State: transfer.Succeeded},
		{Source: "/local/a.txt", State: transfer.Failed, Err: enriched},
		{Source: "/mirror/b.txt", State: transfer.DeleteFailed, Err: pmerrors.ErrDeleteFailed},
	}}

	rendered := shared.RenderErrorList(result, 0)

	g.Expect(rendered).To(ContainSubstring("a.txt"))
	g.Expect(rendered).To(ContainSubstring("permission denied"))
	g.Expect(rendered).To(ContainSubstring("•"))
	g.Expect(rendered).To(ContainSubstring("b.txt (copied, original kept)"))
	g.Expect(rendered).ToNot(ContainSubstring("ok.txt"))
}

func TestRenderErrorList_LimitsOutput(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	result := &transfer.BatchResult{}
	for i := range shared.ErrorLimit + 3 {
		result.Items = append(result.Items, transfer.ItemResult{
			Source: fmt.Sprintf("/f%d", i),
			State:  transfer.Failed,
			Err:    errors.New(strings.Repeat("x", 200)),
		})
	}

	rendered := shared.RenderErrorList(result, 40)

	g.Expect(rendered).To(ContainSubstring("... and 3 more error(s)"))
	g.Expect(rendered).ToNot(ContainSubstring(strings.Repeat("x", 41)))
	g.Expect(shared.RenderErrorList(nil, 0)).To(BeEmpty())
}

package patent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentdesk/pkg/errors"
)

func widgetInput() Input {
	return Input{
		Title:         "Widget",
		Description:   "A better widget",
		Inventors:     []string{"Alice"},
		Jurisdictions: []string{"US"},
	}
}

func newWidget(t *testing.T) *Patent {
	t.Helper()
	p, err := NewPatent(uuid.New(), widgetInput())
	require.NoError(t, err)
	return p
}

func TestNewPatent_StartsAsDraft(t *testing.T) {
	owner := uuid.New()
	p, err := NewPatent(owner, widgetInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, owner, p.OwnerID)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, []string{"Alice"}, p.Inventors)
	assert.True(t, p.IsOwnedBy(owner))
	assert.False(t, p.IsOwnedBy(uuid.New()))
	assert.Nil(t, p.FilingDate)
}

func TestNewPatent_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"blank title", func(in *Input) { in.Title = "   " }},
		{"markup-only title", func(in *Input) { in.Title = "<b></b>" }},
		{"blank description", func(in *Input) { in.Description = "" }},
		{"no inventors", func(in *Input) { in.Inventors = nil }},
		{"blank inventors", func(in *Input) { in.Inventors = []string{" ", ""} }},
		{"no jurisdictions", func(in *Input) { in.Jurisdictions = []string{" "} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := widgetInput()
			tc.mutate(&in)
			_, err := NewPatent(uuid.New(), in)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}

	_, err := NewPatent(uuid.Nil, widgetInput())
	assert.Error(t, err)
}

func TestNewPatent_SanitizesAndNormalizes(t *testing.T) {
	in := widgetInput()
	in.Title = "<b>Widget</b> & Co"
	in.Description = `A better <script>alert(1)</script>widget`
	in.Jurisdictions = []string{"us", " EP ", "US", "ep", "jp"}
	in.Claims = []string{"<p>A widget comprising a gear.</p>", "  "}

	p, err := NewPatent(uuid.New(), in)
	require.NoError(t, err)
	assert.Equal(t, "Widget & Co", p.Title)
	assert.Equal(t, "A better widget", p.Description)
	assert.Equal(t, []string{"US", "EP", "JP"}, p.Jurisdictions)
	assert.Equal(t, []string{"A widget comprising a gear."}, p.Claims)
}

func TestApply_PartialUpdate(t *testing.T) {
	p := newWidget(t)
	created := p.UpdatedAt
	title := "Gadget"

	require.NoError(t, p.Apply(Update{Title: &title}))
	assert.Equal(t, "Gadget", p.Title)
	assert.Equal(t, "A better widget", p.Description)
	assert.Equal(t, []string{"Alice"}, p.Inventors)
	assert.False(t, p.UpdatedAt.Before(created))
}

func TestApply_InvalidLeavesPatentUnchanged(t *testing.T) {
	p := newWidget(t)
	empty := []string{}

	err := p.Apply(Update{Inventors: &empty})
	require.Error(t, err)
	assert.Equal(t, []string{"Alice"}, p.Inventors)
}

func TestStatus_Transitions(t *testing.T) {
	allowed := map[Status][]Status{
		StatusDraft:    {StatusPending, StatusFiled},
		StatusPending:  {StatusDraft, StatusFiled, StatusRejected},
		StatusFiled:    {StatusGranted, StatusRejected, StatusPending},
		StatusRejected: {StatusDraft},
	}
	all := []Status{StatusDraft, StatusPending, StatusFiled, StatusGranted, StatusRejected}
	for _, from := range all {
		for _, to := range all {
			want := from == to
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusGranted.IsTerminal())
	assert.False(t, StatusDraft.IsTerminal())
}

func TestTransitionTo_DraftToFiledStampsFilingDate(t *testing.T) {
	p := newWidget(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	changed, err := p.TransitionTo(StatusFiled, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusFiled, p.Status)
	require.NotNil(t, p.FilingDate)
	assert.Equal(t, now, *p.FilingDate)

	changed, err = p.TransitionTo(StatusGranted, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, p.GrantDate)
}

func TestTransitionTo_KeepsExistingFilingDate(t *testing.T) {
	p := newWidget(t)
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := p.TransitionTo(StatusFiled, first)
	require.NoError(t, err)
	_, err = p.TransitionTo(StatusPending, first.Add(time.Hour))
	require.NoError(t, err)
	_, err = p.TransitionTo(StatusFiled, first.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, *p.FilingDate)
}

func TestTransitionTo_SameStatusIsNoop(t *testing.T) {
	p := newWidget(t)
	changed, err := p.TransitionTo(StatusDraft, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTransitionTo_Rejected(t *testing.T) {
	p := newWidget(t)
	_, err := p.TransitionTo(StatusGranted, time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePatentStatusInvalid))
	assert.Equal(t, StatusDraft, p.Status)

	_, err = p.TransitionTo(Status("archived"), time.Now())
	assert.True(t, errors.IsCode(err, errors.ErrCodePatentStatusInvalid))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Filed ")
	require.NoError(t, err)
	assert.Equal(t, StatusFiled, st)

	_, err = ParseStatus("abandoned")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePatentStatusInvalid, errors.GetCode(err))
}

func TestPatent_Text(t *testing.T) {
	p := newWidget(t)
	p.Claims = []string{"claim one"}
	assert.Equal(t, "Widget. A better widget claim one", p.Text())
}

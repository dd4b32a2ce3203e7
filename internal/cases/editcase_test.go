package cases

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/legal-case-console/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

// fakeRef serves fixed option lists; block makes Clients wait for ctx.
type fakeRef struct {
	block    bool
	started  chan struct{}
	ctxErr   atomic.Value
	failType bool
}

func (f *fakeRef) Clients(ctx context.Context) ([]models.Client, error) {
	if f.block {
		close(f.started)
		<-ctx.Done()
		f.ctxErr.Store(ctx.Err())
		return nil, ctx.Err()
	}
	return []models.Client{{ID: 1, FullName: "Juan Cruz"}}, nil
}

func (f *fakeRef) CaseCategories(context.Context) ([]models.CaseCategory, error) {
	return []models.CaseCategory{{ID: 1, Name: "Civil"}, {ID: 2, Name: "Criminal"}}, nil
}

func (f *fakeRef) CaseCategoryTypes(context.Context) ([]models.CaseCategoryType, error) {
	if f.failType {
		return nil, errors.New("boom")
	}
	return []models.CaseCategoryType{
		{ID: 10, Name: "Ejectment", CategoryID: 1},
		{ID: 20, Name: "Theft", CategoryID: 2},
	}, nil
}

func (f *fakeRef) LawyerSpecializations(context.Context) ([]models.LawyerSpecialization, error) {
	return []models.LawyerSpecialization{
		{UserID: 5, FirstName: "Ana", LastName: "Reyes", CategoryID: 1},
		{UserID: 6, FirstName: "Ben", LastName: "Lim", CategoryID: 2},
	}, nil
}

var (
	admin  = models.User{ID: 1, FirstName: "Ada", MiddleName: "B", LastName: "Santos", Role: models.RoleAdmin}
	lawyer = models.User{ID: 7, FirstName: "Leo", LastName: "Tan", Role: models.RoleLawyer}
)

func int64p(v int64) *int64 { return &v }

func taggedCase(balance models.Money) models.Case {
	return models.Case{
		ID:         42,
		ClientID:   1,
		CategoryID: 1,
		TypeID:     10,
		Status:     models.CasePending,
		Balance:    balance,
		Tags: models.TagSet{
			Tags:     []models.Tag{{ID: 3, Name: "Filing"}, {ID: 4, Name: "Hearing"}},
			ActiveID: int64p(3),
		},
	}
}

func openEdit(t *testing.T, actor models.User, c models.Case) *EditCase {
	t.Helper()
	e := NewEditCase(actor, nil)
	e.Open(context.Background(), &fakeRef{}, c)
	require.Equal(t, EditPopulated, e.State())
	return e
}

/* ============================================================================
   Tests
   ============================================================================ */

func Test_EditCase_TagGuard_RejectsChangeWithBalance(t *testing.T) {
	e := openEdit(t, admin, taggedCase(15000))

	require.NoError(t, e.SetField("ctag_id", "4"))
	_, err := e.Submit()
	assert.ErrorIs(t, err, ErrTagLocked)
	assert.Equal(t, EditEditing, e.State(), "modal stays open")

	require.NoError(t, e.SetField("ctag_id", "3"))
	merged, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, int64(3), *merged.Tags.ActiveID)
	assert.Equal(t, EditClosed, e.State())
}

func Test_EditCase_TagGuard_AllowsChangeWhenPaid(t *testing.T) {
	e := openEdit(t, admin, taggedCase(0))
	require.NoError(t, e.SetField("ctag_id", "4"))
	merged, err := e.Submit()
	require.NoError(t, err)
	active, ok := merged.Tags.Active()
	require.True(t, ok)
	assert.Equal(t, "Hearing", active.Name)
	assert.Len(t, merged.Tags.Tags, 2, "candidate list unchanged")
}

func Test_EditCase_TagGuard_UnsetAndEmptyAreEqual(t *testing.T) {
	c := taggedCase(15000)
	c.Tags.ActiveID = nil
	e := openEdit(t, admin, c)
	_, err := e.Submit()
	assert.NoError(t, err)
}

func Test_EditCase_LawyerSeed(t *testing.T) {
	processing := taggedCase(0)
	processing.Status = models.CaseProcessing
	processing.LawyerID = int64p(5)

	pending := taggedCase(0)
	pending.LawyerID = int64p(5)

	assert.Equal(t, "7", openEdit(t, lawyer, pending).View().Form.LawyerID, "lawyer is always self")
	assert.Equal(t, "5", openEdit(t, admin, processing).View().Form.LawyerID)
	assert.Equal(t, "", openEdit(t, admin, pending).View().Form.LawyerID)
}

func Test_EditCase_CabinetIgnoresNonDigits(t *testing.T) {
	c := taggedCase(0)
	c.Cabinet = "12"
	e := openEdit(t, admin, c)

	require.NoError(t, e.SetField("case_cabinet", "12a"))
	assert.Equal(t, "12", e.View().Form.Cabinet)
	assert.Equal(t, EditPopulated, e.State(), "ignored input is not a change")

	require.NoError(t, e.SetField("case_drawer", "7"))
	assert.Equal(t, "7", e.View().Form.Drawer)
	assert.Equal(t, EditEditing, e.State())
}

func Test_EditCase_NumericCheckOnSubmit(t *testing.T) {
	c := taggedCase(0)
	c.Cabinet = "A1"
	e := openEdit(t, admin, c)

	_, err := e.Submit()
	require.ErrorIs(t, err, ErrInvalid)
	v := e.View()
	assert.Equal(t, msgCabinetNaN, v.Errors["case_cabinet"])

	require.NoError(t, e.SetField("case_cabinet", "4"))
	assert.NotContains(t, e.View().Errors, "case_cabinet", "a change clears the field error")
}

func Test_EditCase_CategoryChangeResetsType(t *testing.T) {
	e := openEdit(t, admin, taggedCase(0))
	assert.Equal(t, "10", e.View().Form.TypeID)

	require.NoError(t, e.SetField("cc_id", "2"))
	v := e.View()
	assert.Equal(t, "", v.Form.TypeID)
	require.Len(t, v.Types, 1)
	assert.Equal(t, "Theft", v.Types[0].Name)
}

func Test_EditCase_LawyerOptions(t *testing.T) {
	e := openEdit(t, admin, taggedCase(0))
	v := e.View()
	assert.Equal(t, []LawyerOption{{ID: 5, Label: "Ana Reyes"}}, v.Lawyers)
	assert.False(t, v.LawyerLocked)

	require.NoError(t, e.SetField("cc_id", "9"))
	assert.Equal(t, []LawyerOption{{ID: 1, Label: "Ada B Santos (You)"}}, e.View().Lawyers)

	l := openEdit(t, lawyer, taggedCase(0))
	lv := l.View()
	assert.Equal(t, []LawyerOption{{ID: 7, Label: "Leo Tan"}}, lv.Lawyers)
	assert.True(t, lv.LawyerLocked)
	assert.Equal(t, "Update Case & Start Processing", lv.SubmitLabel)

	require.NoError(t, l.SetField("user_id", "5"))
	assert.Equal(t, "7", l.View().Form.LawyerID, "non-admins cannot reassign")
}

func Test_EditCase_SubmitMerges(t *testing.T) {
	e := openEdit(t, admin, taggedCase(0))
	require.NoError(t, e.SetField("user_id", "5"))
	require.NoError(t, e.SetField("client_id", ""))
	require.NoError(t, e.SetField("case_remarks", " <b>urgent</b> "))

	merged, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, models.CaseProcessing, merged.Status, "assigning a lawyer starts processing")
	assert.Equal(t, int64(5), *merged.LawyerID)
	assert.Equal(t, int64(0), merged.ClientID)
	assert.Equal(t, "urgent", merged.Remarks)
}

func Test_EditCase_ClosedRejectsInput(t *testing.T) {
	e := NewEditCase(admin, nil)
	assert.ErrorIs(t, e.SetField("ctag_id", "1"), ErrNotOpen)
	_, err := e.Submit()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, openEdit(t, admin, taggedCase(0)).SetField("nope", "1"), ErrUnknownField)
}

func Test_EditCase_FailingListDegradesToEmpty(t *testing.T) {
	e := NewEditCase(admin, nil)
	e.Open(context.Background(), &fakeRef{failType: true}, taggedCase(0))
	v := e.View()
	assert.Equal(t, EditPopulated, v.State)
	assert.Empty(t, v.Types)
	assert.NotNil(t, v.Types)
	assert.Len(t, v.Clients, 1)
}

func Test_EditCase_CloseAbortsLoads(t *testing.T) {
	ref := &fakeRef{block: true, started: make(chan struct{})}
	e := NewEditCase(admin, nil)

	done := make(chan struct{})
	go func() {
		e.Open(context.Background(), ref, taggedCase(0))
		close(done)
	}()

	select {
	case <-ref.started:
	case <-time.After(2 * time.Second):
		t.Fatal("loads never started")
	}
	assert.Equal(t, EditLoading, e.State())
	e.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("open did not return after close")
	}
	assert.ErrorIs(t, ref.ctxErr.Load().(error), context.Canceled)
	assert.Equal(t, EditClosed, e.State(), "late results are dropped")
}

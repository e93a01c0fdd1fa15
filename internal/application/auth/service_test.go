package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/turtacn/patentdesk/internal/application/events"
	"github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/internal/testutil"
	"github.com/turtacn/patentdesk/pkg/errors"
)

type passthroughTx struct{ calls int }

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type stubIssuer struct{}

func (stubIssuer) Issue(id uuid.UUID, email string) (string, error) {
	return "token-" + id.String(), nil
}

type fixture struct {
	users *testutil.MockUserRepository
	subs  *testutil.MockSubscriptionRepository
	pub   *testutil.MockPublisher
	tx    *passthroughTx
	svc   Service
}

func newFixture() *fixture {
	f := &fixture{
		users: new(testutil.MockUserRepository),
		subs:  new(testutil.MockSubscriptionRepository),
		pub:   new(testutil.MockPublisher),
		tx:    &passthroughTx{},
	}
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	log := testutil.NewMockLogger()
	f.svc = NewService(f.users, f.subs, f.tx, stubIssuer{}, events.NewEmitter(f.pub, nil, log), nil, log,
		Options{BcryptCost: bcrypt.MinCost})
	return f
}

func validRegister() *RegisterInput {
	return &RegisterInput{
		Email:     " Ada@Example.com ",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Plan:      "pro",
	}
}

func TestRegister_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.users.On("ExistsByEmail", ctx, "ada@example.com").Return(false, nil)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)
	f.subs.On("Create", mock.Anything, mock.AnythingOfType("*subscription.Subscription")).Return(nil)

	out, err := f.svc.Register(ctx, validRegister())
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", out.User.Email)
	assert.Equal(t, user.PlanPro, out.User.Plan)
	assert.Equal(t, "token-"+out.User.ID.String(), out.Token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(out.User.PasswordHash), []byte("correct horse")))
	assert.Equal(t, 1, f.tx.calls)

	created := f.subs.Calls[0].Arguments.Get(1).(*subscription.Subscription)
	assert.Equal(t, out.User.ID, created.UserID)
	assert.Equal(t, subscription.StatusActive, created.Status)
	assert.Equal(t, user.PlanPro, created.Plan)
	assert.Equal(t, []string{subscription.EventChanged}, f.pub.EventTypes())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	f.users.On("ExistsByEmail", mock.Anything, "ada@example.com").Return(true, nil)

	_, err := f.svc.Register(context.Background(), validRegister())
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateEmail))
	assert.True(t, errors.IsConflict(err))
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateOnInsert(t *testing.T) {
	f := newFixture()
	f.users.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
	f.users.On("Create", mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodeDuplicateEmail, "user with this email already exists"))

	_, err := f.svc.Register(context.Background(), validRegister())
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateEmail))
	f.subs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.pub.EventTypes())
}

func TestRegister_Validation(t *testing.T) {
	cases := map[string]func(*RegisterInput){
		"bad email":      func(in *RegisterInput) { in.Email = "nope" },
		"short password": func(in *RegisterInput) { in.Password = "short" },
		"long password":  func(in *RegisterInput) { in.Password = strings.Repeat("p", 80) },
		"blank name":     func(in *RegisterInput) { in.FirstName = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			in := validRegister()
			mutate(in)
			_, err := f.svc.Register(context.Background(), in)
			assert.True(t, errors.IsValidation(err))
			f.users.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_InvalidPlan(t *testing.T) {
	f := newFixture()
	in := validRegister()
	in.Plan = "platinum"
	_, err := f.svc.Register(context.Background(), in)
	assert.True(t, errors.IsCode(err, errors.ErrCodePlanInvalid))
}

func storedUser(t *testing.T, password string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := user.NewUser("ada@example.com", string(hash), user.Profile{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	return u
}

func TestLogin(t *testing.T) {
	f := newFixture()
	u := storedUser(t, "correct horse")
	f.users.On("GetByEmail", mock.Anything, "ada@example.com").Return(u, nil)

	out, err := f.svc.Login(context.Background(), &LoginInput{Email: "ADA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, out.User.ID)
	assert.NotEmpty(t, out.Token)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newFixture()
	u := storedUser(t, "correct horse")
	f.users.On("GetByEmail", mock.Anything, "ada@example.com").Return(u, nil)
	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, errors.New(errors.ErrCodeUserNotFound, "user not found"))

	_, errWrong := f.svc.Login(context.Background(), &LoginInput{Email: "ada@example.com", Password: "battery staple"})
	_, errUnknown := f.svc.Login(context.Background(), &LoginInput{Email: "ghost@example.com", Password: "correct horse"})

	require.Error(t, errWrong)
	require.Error(t, errUnknown)
	assert.True(t, errors.IsCode(errWrong, errors.ErrCodeInvalidCredentials))
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestMe(t *testing.T) {
	f := newFixture()
	u := storedUser(t, "correct horse")
	f.users.On("GetByID", mock.Anything, u.ID).Return(u, nil)

	got, err := f.svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = f.svc.Me(context.Background(), uuid.Nil)
	assert.True(t, errors.IsUnauthorized(err))
}

package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-scratch/repository"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// RegisterUserMessage stores a new account. The password is already hashed
// and the phone number already normalized.
type RegisterUserMessage struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone_number"`
	PasswordHash string    `json:"-"`
	RegisteredAt time.Time `json:"registered_at"`
}

var _ command.Message = RegisterUserMessage{}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will validate the message
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.By(notNilUUID)),
		validation.Field(&e.Email, validation.Required),
		validation.Field(&e.PasswordHash, validation.Required),
		validation.Field(&e.RegisteredAt, validation.Required),
	)
}

// RegisterUserHandler creates the user and records the registration as
// their first login, in one transaction
type RegisterUserHandler struct {
	repo repository.Manager
}

var _ command.Commander[RegisterUserMessage] = (*RegisterUserHandler)(nil)

// NewRegisterUserHandler creates a RegisterUserHandler
func NewRegisterUserHandler(repo repository.Manager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.FromOzzoValidation(err, "invalid registration message")
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx repository.Manager) error {
		created, err := tx.Users().Create(ctx, &repository.User{
			ID:           event.ID,
			Email:        event.Email,
			Phone:        event.Phone,
			PasswordHash: event.PasswordHash,
		})
		if err != nil {
			return err
		}
		return tx.Users().TrackSuccessfulLogin(ctx, created.ID, event.RegisteredAt)
	})

	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "email already registered").
				WithCode(goerrors.CodeConflict).
				WithTextCode("EMAIL_TAKEN")
		}

		var richErr *goerrors.Error
		if errors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return nil
}

// UserID derives the id for the account registered under email. The same
// email and key always give the same id.
func UserID(email string, key []byte) (uuid.UUID, error) {
	opts := []hashid.Option{hashid.WithCustomNormalizer(normalizeIDInput)}
	if len(key) > 0 {
		opts = append(opts, hashid.WithHMACKey(key))
	}
	return hashid.NewUUID(email, opts...)
}

func normalizeIDInput(s string) (string, error) {
	return strings.ToLower(strings.TrimSpace(s)), nil
}

func notNilUUID(value any) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

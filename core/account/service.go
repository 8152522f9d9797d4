package account

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pal/core"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("account")
	ErrEmailExists          = errors.New("That email is already registered.")
	ErrInvalidCredentials   = errors.New("Email or password incorrect.")
	ErrAccountInactive      = errors.New("Your account is not active yet.")
	ErrNotAllowed           = core.NewPermissionError("You don't have permission to manage accounts.", "/v1/accounts/me")
	ErrDeleteSelf           = core.NewStateError("You cannot delete your own account.")
	ErrInstructorHasCourses = core.NewStateError("This instructor still owns courses and cannot be deleted.")

	nowFunc = time.Now // mockable
)

type (
	// GetFilter looks an account up by ID, or by Email when ID is empty.
	GetFilter struct {
		ID    string
		Email string
	}

	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded []Account, exec ...core.DBExecutor) error
		// CreateAccount and UpdateAccount apply the activation rules before saving.
		CreateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		// QueryAccounts applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of email, first name or last name.
		QueryAccounts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Account, error)
		GetAccount(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Account, error)
		UpdateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		CountCoursesTaught(ctx context.Context, id string, exec ...core.DBExecutor) (int, error)
		DeleteAccounts(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Account) error
		Create(ctx context.Context, na NewAccount) (Account, error)
		// AddUser creates or updates an account on behalf of an operator (admin CLI).
		AddUser(ctx context.Context, email, pwd, role string, superuser bool) (Account, error)
		Authenticate(ctx context.Context, email, pwd string) (Account, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
		Update(ctx context.Context, actor Account, id string, ua UpdateAccount) (Account, error)
		SetPassword(ctx context.Context, acc Account, pwd string) (Account, error)
		ApproveInstructors(ctx context.Context, actor Account, ids ...string) (int, error)
		Delete(ctx context.Context, actor Account, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetPassword) (Account, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService) Service {
	return &service{
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
	}
}

func (svc *service) CheckEmailUniqueness(ctx context.Context, email string, excluded ...Account) error {
	return svc.repo.CheckEmailUniqueness(ctx, core.CleanString(email, true /* lower */), excluded)
}

func (svc *service) Create(ctx context.Context, na NewAccount) (Account, error) {
	role := na.Role
	if role == "" {
		role = RoleStudent
	}
	now := nowFunc().UTC()
	acc := Account{
		Email:     na.Email,
		FirstName: na.FirstName,
		LastName:  na.LastName,
		Address:   na.Address,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "setting password")
	}
	acc, err := svc.repo.CreateAccount(ctx, acc)
	return acc, errors.Wrap(err, "creating account")
}

func (svc *service) AddUser(ctx context.Context, email, pwd, role string, superuser bool) (Account, error) {
	email = core.CleanString(email, true /* lower */)
	now := nowFunc().UTC()

	acc, err := svc.GetByEmail(ctx, email)
	isNew := err == ErrNotFound
	if err != nil && !isNew {
		return Account{}, errors.Wrap(err, "finding account by email")
	}
	if isNew {
		acc = Account{Email: email, CreatedAt: now}
	}
	acc.Role = role
	acc.IsSuperuser = superuser
	acc.IsApproved = true
	acc.UpdatedAt = now
	if err = acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "setting password")
	}

	if isNew {
		acc, err = svc.repo.CreateAccount(ctx, acc)
		return acc, errors.Wrap(err, "creating account")
	}
	acc, err = svc.repo.UpdateAccount(ctx, acc)
	return acc, errors.Wrap(err, "updating account")
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (Account, error) {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, errors.Wrap(err, "finding account by email")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if !acc.IsActive {
		return Account{}, ErrAccountInactive
	}

	acc.LastLogin = null.TimeFrom(nowFunc().UTC())
	acc, err = svc.repo.UpdateAccount(ctx, acc)
	return acc, errors.Wrap(err, "setting last login")
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Account, error) {
	return svc.repo.QueryAccounts(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Update lets an account edit itself; admins may edit anyone and are the only ones allowed to
// change roles and approval.
func (svc *service) Update(ctx context.Context, actor Account, id string, ua UpdateAccount) (Account, error) {
	if actor.ID != id && !actor.IsAdmin() {
		return Account{}, ErrNotAllowed
	}
	if !actor.IsAdmin() && (ua.Role != "" || ua.IsApproved != nil) {
		return Account{}, core.NewPermissionError("Only admins can change roles and approval.", "/v1/accounts/me")
	}

	acc, err := svc.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	wasApproved := acc.IsApproved
	if ua.FirstName != "" {
		acc.FirstName = ua.FirstName
	}
	if ua.LastName != "" {
		acc.LastName = ua.LastName
	}
	if ua.Address != "" {
		acc.Address = ua.Address
	}
	if ua.Role != "" {
		acc.Role = ua.Role
	}
	if ua.IsApproved != nil {
		acc.IsApproved = *ua.IsApproved
	}
	if ua.Password != "" {
		if err = acc.SetPassword(ua.Password); err != nil {
			return Account{}, errors.Wrap(err, "setting password")
		}
	}
	acc.UpdatedAt = nowFunc().UTC()

	if acc, err = svc.repo.UpdateAccount(ctx, acc); err != nil {
		return Account{}, errors.Wrap(err, "updating account")
	}
	if acc.IsInstructor() && acc.IsApproved && !wasApproved {
		svc.notifyApproved(acc)
	}
	return acc, nil
}

func (svc *service) SetPassword(ctx context.Context, acc Account, pwd string) (Account, error) {
	if err := acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "setting password")
	}
	acc.UpdatedAt = nowFunc().UTC()
	acc, err := svc.repo.UpdateAccount(ctx, acc)
	return acc, errors.Wrap(err, "updating account")
}

// ApproveInstructors approves and activates pending instructors and notifies them by email.
// Accounts that are not pending instructors are skipped. Returns the number of approved accounts.
func (svc *service) ApproveInstructors(ctx context.Context, actor Account, ids ...string) (int, error) {
	if !actor.IsAdmin() {
		return 0, ErrNotAllowed
	}

	approved := make([]Account, 0, len(ids))
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		for _, id := range ids {
			acc, err := svc.repo.GetAccount(ctx, GetFilter{ID: id}, tx)
			if err != nil {
				if err == ErrNotFound {
					continue
				}
				return errors.Wrap(err, "finding account by ID")
			}
			if !acc.IsInstructor() || acc.IsApproved {
				continue
			}
			acc.IsApproved = true
			acc.UpdatedAt = nowFunc().UTC()
			if acc, err = svc.repo.UpdateAccount(ctx, acc, tx); err != nil {
				return errors.Wrap(err, "approving instructor")
			}
			approved = append(approved, acc)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	svc.notifyApproved(approved...)
	return len(approved), nil
}

// notifyApproved emails instructors whose account was just approved.
func (svc *service) notifyApproved(accs ...Account) {
	if len(accs) == 0 {
		return
	}
	msgs := make([]*core.EmailMessage, 0, len(accs))
	for _, acc := range accs {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: acc.FullName(), Address: acc.Email}},
			Subject:      "Your instructor account has been approved",
			TemplateName: "instructor_approved",
			TemplateData: struct{ Name string }{Name: acc.FirstName},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}

func (svc *service) Delete(ctx context.Context, actor Account, ids ...string) error {
	if !actor.IsAdmin() {
		return ErrNotAllowed
	}
	if len(ids) == 0 {
		return nil
	}

	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		for _, id := range ids {
			if id == actor.ID {
				return ErrDeleteSelf
			}
			count, err := svc.repo.CountCoursesTaught(ctx, id, tx)
			if err != nil {
				return errors.Wrap(err, "counting courses taught")
			}
			if count > 0 {
				return ErrInstructorHasCourses
			}
		}
		return errors.Wrap(svc.repo.DeleteAccounts(ctx, ids, tx), "deleting accounts")
	})
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := MakeToken(acc)
	if err != nil {
		return errors.Wrap(err, "making token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.FullName(), Address: acc.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{
			Name:  acc.FirstName,
			UID:   EncodeUID(acc),
			Token: token,
		},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetPassword) (Account, error) {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return Account{}, ErrInvalidResetLink
	}
	acc, err := svc.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Account{}, ErrInvalidResetLink
		}
		return Account{}, err
	}
	if err = verifyToken(acc, rp.Token); err != nil {
		return Account{}, ErrInvalidResetLink
	}
	return svc.SetPassword(ctx, acc, rp.Password)
}

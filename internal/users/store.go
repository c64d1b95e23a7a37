// Package users owns the users partition of client state: the auth flows, the
// private and public profile caches, the social-graph operations, and one
// request lifecycle per remote operation. Session persistence side effects
// (login, register, password reset, logout) live here, behind the session
// manager.
package users

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inkwell/internal/api"
	"inkwell/internal/domain"
	"inkwell/internal/lifecycle"
	"inkwell/internal/platform/logger"
	"inkwell/internal/platform/metrics"
	"inkwell/internal/session"
	"inkwell/internal/signal"
	"inkwell/pkg/platform/sentinel"
)

const domainName = "users"

// Operation names the users operations for status lookups and metrics.
type Operation string

const (
	OpLogin            Operation = "login"
	OpRegister         Operation = "register"
	OpLogout           Operation = "logout"
	OpPublicProfile    Operation = "publicProfile"
	OpPrivateProfile   Operation = "privateProfile"
	OpFollow           Operation = "follow"
	OpUnfollow         Operation = "unfollow"
	OpBlock            Operation = "block"
	OpUnblock          Operation = "unblock"
	OpUploadProfileImg Operation = "uploadProfileImage"
	OpUploadCoverImg   Operation = "uploadCoverImage"
	OpSendVerification Operation = "sendVerificationEmail"
	OpVerifyAccount    Operation = "verifyAccount"
	OpForgotPassword   Operation = "forgotPassword"
	OpResetPassword    Operation = "resetPassword"
	OpUpdateProfile    Operation = "updateProfile"
)

// API is the slice of the wire client the users store consumes.
type API interface {
	Login(ctx context.Context, in api.LoginInput) (api.Credentials, error)
	Register(ctx context.Context, in api.RegisterInput) (api.Credentials, error)
	PublicProfile(ctx context.Context, userID string) (domain.Profile, error)
	PrivateProfile(ctx context.Context) (domain.Profile, error)
	Follow(ctx context.Context, userID string) (domain.Profile, error)
	Unfollow(ctx context.Context, userID string) (domain.Profile, error)
	Block(ctx context.Context, userID string) (domain.Profile, error)
	Unblock(ctx context.Context, userID string) (domain.Profile, error)
	UploadProfileImage(ctx context.Context, file api.File) (domain.Profile, error)
	UploadCoverImage(ctx context.Context, file api.File) (domain.Profile, error)
	SendVerificationEmail(ctx context.Context) (string, error)
	VerifyAccount(ctx context.Context, verifyToken string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, resetToken, password string) (api.Credentials, error)
	UpdateProfile(ctx context.Context, in api.UpdateProfileInput) (domain.Profile, error)
}

// Store is the users domain store.
type Store struct {
	api      API
	sessions *session.Manager
	bus      *signal.Bus
	mirror   *signal.Mirror
	log      *slog.Logger
	metrics  *metrics.Metrics

	login          *lifecycle.Lifecycle[session.Session]
	register       *lifecycle.Lifecycle[session.Session]
	logout         *lifecycle.Lifecycle[string]
	publicProfile  *lifecycle.Lifecycle[domain.Profile]
	privateProfile *lifecycle.Lifecycle[domain.Profile]
	follow         *lifecycle.Lifecycle[domain.Profile]
	unfollow       *lifecycle.Lifecycle[domain.Profile]
	block          *lifecycle.Lifecycle[domain.Profile]
	unblock        *lifecycle.Lifecycle[domain.Profile]
	uploadProfile  *lifecycle.Lifecycle[domain.Profile]
	uploadCover    *lifecycle.Lifecycle[domain.Profile]
	sendVerify     *lifecycle.Lifecycle[string]
	verifyAccount  *lifecycle.Lifecycle[string]
	forgotPassword *lifecycle.Lifecycle[string]
	resetPassword  *lifecycle.Lifecycle[session.Session]
	updateProfile  *lifecycle.Lifecycle[domain.Profile]
	index          map[Operation]lifecycle.Inspector

	mu      sync.Mutex
	profile *domain.Profile
	public  *domain.Profile

	// One-shot flags for the profile and email flows; cleared by the global
	// success reset along with the success mirror.
	flagsMu         sync.Mutex
	isUpdated       bool
	isEmailSent     bool
	isPasswordReset bool
	isVerified      bool
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New builds the store and registers its reset handler on the bus.
func New(client API, sessions *session.Manager, bus *signal.Bus, opts ...Option) *Store {
	s := &Store{
		api:            client,
		sessions:       sessions,
		bus:            bus,
		mirror:         signal.NewMirror(),
		log:            logger.Discard(),
		login:          lifecycle.New[session.Session](),
		register:       lifecycle.New[session.Session](),
		logout:         lifecycle.New[string](),
		publicProfile:  lifecycle.New[domain.Profile](),
		privateProfile: lifecycle.New[domain.Profile](),
		follow:         lifecycle.New[domain.Profile](),
		unfollow:       lifecycle.New[domain.Profile](),
		block:          lifecycle.New[domain.Profile](),
		unblock:        lifecycle.New[domain.Profile](),
		uploadProfile:  lifecycle.New[domain.Profile](),
		uploadCover:    lifecycle.New[domain.Profile](),
		sendVerify:     lifecycle.New[string](),
		verifyAccount:  lifecycle.New[string](),
		forgotPassword: lifecycle.New[string](),
		resetPassword:  lifecycle.New[session.Session](),
		updateProfile:  lifecycle.New[domain.Profile](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.index = map[Operation]lifecycle.Inspector{
		OpLogin:            s.login,
		OpRegister:         s.register,
		OpLogout:           s.logout,
		OpPublicProfile:    s.publicProfile,
		OpPrivateProfile:   s.privateProfile,
		OpFollow:           s.follow,
		OpUnfollow:         s.unfollow,
		OpBlock:            s.block,
		OpUnblock:          s.unblock,
		OpUploadProfileImg: s.uploadProfile,
		OpUploadCoverImg:   s.uploadCover,
		OpSendVerification: s.sendVerify,
		OpVerifyAccount:    s.verifyAccount,
		OpForgotPassword:   s.forgotPassword,
		OpResetPassword:    s.resetPassword,
		OpUpdateProfile:    s.updateProfile,
	}
	bus.Register(s)
	return s
}

// Login authenticates and persists the resulting session. Raises success.
func (s *Store) Login(ctx context.Context, in api.LoginInput) (session.Session, error) {
	return s.credentialOp(ctx, OpLogin, s.login, func(ctx context.Context) (api.Credentials, error) {
		return s.api.Login(ctx, in)
	})
}

// Register creates an account and persists the resulting session. Raises success.
func (s *Store) Register(ctx context.Context, in api.RegisterInput) (session.Session, error) {
	return s.credentialOp(ctx, OpRegister, s.register, func(ctx context.Context) (api.Credentials, error) {
		return s.api.Register(ctx, in)
	})
}

// ResetPassword completes the password-reset flow and persists the fresh
// session the server answers with. Sets the password-reset flag.
func (s *Store) ResetPassword(ctx context.Context, resetToken, password string) (session.Session, error) {
	sess, err := s.credentialOp(ctx, OpResetPassword, s.resetPassword, func(ctx context.Context) (api.Credentials, error) {
		return s.api.ResetPassword(ctx, resetToken, password)
	})
	if err == nil {
		s.flagsMu.Lock()
		s.isPasswordReset = true
		s.flagsMu.Unlock()
	}
	return sess, err
}

func (s *Store) credentialOp(
	ctx context.Context,
	op Operation,
	lc *lifecycle.Lifecycle[session.Session],
	call func(ctx context.Context) (api.Credentials, error),
) (session.Session, error) {
	ticket := lc.Start()
	start := time.Now()

	creds, err := call(ctx)
	if err != nil {
		if ferr := lc.Fail(ticket, err); ferr != nil {
			return session.Session{}, s.discard(op, ferr)
		}
		s.reject(op, err, start)
		return session.Session{}, err
	}

	// Claim the ticket before touching the session so a superseded login
	// cannot clobber the winner's persisted session.
	sess := session.Session{Token: creds.Token, User: creds.User()}
	if serr := lc.Succeed(ticket, sess); serr != nil {
		return session.Session{}, s.discard(op, serr)
	}
	if perr := s.sessions.Establish(ctx, sess); perr != nil {
		// The remote call fulfilled but the session could not be persisted.
		// Surface it as a rejection of this operation.
		if ferr := lc.Fail(lc.Start(), perr); ferr != nil {
			return session.Session{}, s.discard(op, ferr)
		}
		s.reject(op, perr, start)
		return session.Session{}, perr
	}
	s.fulfill(op, true, start)
	return sess, nil
}

// Logout destroys the session. Local only: the API has no logout endpoint.
// Logging out while anonymous is idempotent.
func (s *Store) Logout(ctx context.Context) error {
	ticket := s.logout.Start()
	start := time.Now()

	if err := s.sessions.Clear(ctx); err != nil {
		if ferr := s.logout.Fail(ticket, err); ferr != nil {
			return s.discard(OpLogout, ferr)
		}
		s.reject(OpLogout, err, start)
		return err
	}

	if serr := s.logout.Succeed(ticket, "logged out"); serr != nil {
		return s.discard(OpLogout, serr)
	}
	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
	s.fulfill(OpLogout, false, start)
	return nil
}

// FetchPublicProfile loads another user's public profile.
func (s *Store) FetchPublicProfile(ctx context.Context, userID string) (domain.Profile, error) {
	ticket := s.publicProfile.Start()
	start := time.Now()

	profile, err := s.api.PublicProfile(ctx, userID)
	if err != nil {
		if ferr := s.publicProfile.Fail(ticket, err); ferr != nil {
			return domain.Profile{}, s.discard(OpPublicProfile, ferr)
		}
		s.mu.Lock()
		s.public = nil
		s.mu.Unlock()
		s.reject(OpPublicProfile, err, start)
		return domain.Profile{}, err
	}

	if serr := s.publicProfile.Succeed(ticket, profile); serr != nil {
		return domain.Profile{}, s.discard(OpPublicProfile, serr)
	}
	s.mu.Lock()
	s.public = &profile
	s.mu.Unlock()
	s.fulfill(OpPublicProfile, false, start)
	return profile, nil
}

// FetchProfile loads the caller's private profile. Protected.
func (s *Store) FetchProfile(ctx context.Context) (domain.Profile, error) {
	return s.profileOp(ctx, OpPrivateProfile, s.privateProfile, false, false, func(ctx context.Context) (domain.Profile, error) {
		return s.api.PrivateProfile(ctx)
	})
}

// Follow adds the target to the caller's following set. Raises success.
func (s *Store) Follow(ctx context.Context, userID string) (domain.Profile, error) {
	return s.profileOp(ctx, OpFollow, s.follow, true, false, func(ctx context.Context) (domain.Profile, error) {
		return s.api.Follow(ctx, userID)
	})
}

// Unfollow removes the target from the caller's following set. Unfollowing a
// user who is not followed is idempotent on the server. Raises success.
func (s *Store) Unfollow(ctx context.Context, userID string) (domain.Profile, error) {
	return s.profileOp(ctx, OpUnfollow, s.unfollow, true, false, func(ctx context.Context) (domain.Profile, error) {
		return s.api.Unfollow(ctx, userID)
	})
}

// Block adds the target to the caller's blocked set. Raises success.
func (s *Store) Block(ctx context.Context, userID string) (domain.Profile, error) {
	return s.profileOp(ctx, OpBlock, s.block, true, false, func(ctx context.Context) (domain.Profile, error) {
		return s.api.Block(ctx, userID)
	})
}

// Unblock removes the target from the caller's blocked set. Raises success.
func (s *Store) Unblock(ctx context.Context, userID string) (domain.Profile, error) {
	return s.profileOp(ctx, OpUnblock, s.unblock, true, false, func(ctx context.Context) (domain.Profile, error) {
		return s.api.Unblock(ctx, userID)
	})
}

// UploadProfileImage replaces the caller's avatar. Raises success.
func (s *Store) UploadProfileImage(ctx context.Context, file api.File) (domain.Profile, error) {
	return s.profileOp(ctx, OpUploadProfileImg, s.uploadProfile, true, false, func(ctx context.Context) (domain.Profile, error) {
		return s.api.UploadProfileImage(ctx, file)
	})
}

// UploadCoverImage replaces the caller's cover image. Raises success.
func (s *Store) UploadCoverImage(ctx context.Context, file api.File) (domain.Profile, error) {
	return s.profileOp(ctx, OpUploadCoverImg, s.uploadCover, true, false, func(ctx context.Context) (domain.Profile, error) {
		return s.api.UploadCoverImage(ctx, file)
	})
}

// UpdateProfile rewrites profile fields. Raises success and the updated flag.
func (s *Store) UpdateProfile(ctx context.Context, in api.UpdateProfileInput) (domain.Profile, error) {
	return s.profileOp(ctx, OpUpdateProfile, s.updateProfile, true, true, func(ctx context.Context) (domain.Profile, error) {
		return s.api.UpdateProfile(ctx, in)
	})
}

func (s *Store) profileOp(
	ctx context.Context,
	op Operation,
	lc *lifecycle.Lifecycle[domain.Profile],
	raisesSuccess bool,
	marksUpdated bool,
	call func(ctx context.Context) (domain.Profile, error),
) (domain.Profile, error) {
	ticket := lc.Start()
	start := time.Now()

	profile, err := call(ctx)
	if err != nil {
		if ferr := lc.Fail(ticket, err); ferr != nil {
			return domain.Profile{}, s.discard(op, ferr)
		}
		s.reject(op, err, start)
		return domain.Profile{}, err
	}

	if serr := lc.Succeed(ticket, profile); serr != nil {
		return domain.Profile{}, s.discard(op, serr)
	}
	s.mu.Lock()
	s.profile = &profile
	s.mu.Unlock()
	if marksUpdated {
		s.flagsMu.Lock()
		s.isUpdated = true
		s.flagsMu.Unlock()
	}
	s.fulfill(op, raisesSuccess, start)
	return profile, nil
}

// SendVerificationEmail asks the server to mail a verification link. Sets the
// email-sent flag and raises success.
func (s *Store) SendVerificationEmail(ctx context.Context) (string, error) {
	msg, err := s.messageOp(ctx, OpSendVerification, s.sendVerify, func(ctx context.Context) (string, error) {
		return s.api.SendVerificationEmail(ctx)
	})
	if err == nil {
		s.flagsMu.Lock()
		s.isEmailSent = true
		s.flagsMu.Unlock()
	}
	return msg, err
}

// VerifyAccount redeems an emailed verification token. Sets the verified flag
// and raises success.
func (s *Store) VerifyAccount(ctx context.Context, verifyToken string) (string, error) {
	msg, err := s.messageOp(ctx, OpVerifyAccount, s.verifyAccount, func(ctx context.Context) (string, error) {
		return s.api.VerifyAccount(ctx, verifyToken)
	})
	if err == nil {
		s.flagsMu.Lock()
		s.isVerified = true
		s.flagsMu.Unlock()
	}
	return msg, err
}

// ForgotPassword requests a reset email. Sets the email-sent flag and raises
// success. No session is involved until the reset completes.
func (s *Store) ForgotPassword(ctx context.Context, email string) (string, error) {
	msg, err := s.messageOp(ctx, OpForgotPassword, s.forgotPassword, func(ctx context.Context) (string, error) {
		return s.api.ForgotPassword(ctx, email)
	})
	if err == nil {
		s.flagsMu.Lock()
		s.isEmailSent = true
		s.flagsMu.Unlock()
	}
	return msg, err
}

func (s *Store) messageOp(
	ctx context.Context,
	op Operation,
	lc *lifecycle.Lifecycle[string],
	call func(ctx context.Context) (string, error),
) (string, error) {
	ticket := lc.Start()
	start := time.Now()

	msg, err := call(ctx)
	if err != nil {
		if ferr := lc.Fail(ticket, err); ferr != nil {
			return "", s.discard(op, ferr)
		}
		s.reject(op, err, start)
		return "", err
	}

	if serr := lc.Succeed(ticket, msg); serr != nil {
		return "", s.discard(op, serr)
	}
	s.fulfill(op, true, start)
	return msg, nil
}

func (s *Store) fulfill(op Operation, raisesSuccess bool, start time.Time) {
	if raisesSuccess {
		s.mirror.SetSuccess()
		s.bus.RaiseSuccess()
	}
	s.metrics.ObserveOperation(domainName, string(op), "fulfilled", time.Since(start))
}

func (s *Store) reject(op Operation, err error, start time.Time) {
	s.mirror.SetError(err)
	s.bus.RaiseError(err)
	s.metrics.ObserveOperation(domainName, string(op), "rejected", time.Since(start))
	s.log.Debug("operation rejected", "domain", domainName, "operation", op, "error", err)
}

func (s *Store) discard(op Operation, cause error) error {
	s.metrics.IncrementStale(domainName, string(op))
	s.log.Debug("late completion ignored", "domain", domainName, "operation", op, "cause", cause)
	return sentinel.ErrSuperseded
}

// Profile returns the cached private profile.
func (s *Store) Profile() (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return domain.Profile{}, false
	}
	return *s.profile, true
}

// PublicProfile returns the cached public profile.
func (s *Store) PublicProfile() (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.public == nil {
		return domain.Profile{}, false
	}
	return *s.public, true
}

// Status reports an operation's lifecycle state.
func (s *Store) Status(op Operation) lifecycle.Status {
	insp, ok := s.index[op]
	if !ok {
		return lifecycle.StatusIdle
	}
	return insp.Status()
}

// OperationErr returns an operation's installed rejection error.
func (s *Store) OperationErr(op Operation) error {
	insp, ok := s.index[op]
	if !ok {
		return nil
	}
	return insp.Err()
}

// Success reports the domain's success mirror.
func (s *Store) Success() bool {
	return s.mirror.Success()
}

// Failure returns the domain's error mirror.
func (s *Store) Failure() error {
	return s.mirror.Err()
}

// IsUpdated reports the profile-updated one-shot flag.
func (s *Store) IsUpdated() bool {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	return s.isUpdated
}

// IsEmailSent reports the email-sent one-shot flag.
func (s *Store) IsEmailSent() bool {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	return s.isEmailSent
}

// IsPasswordReset reports the password-reset one-shot flag.
func (s *Store) IsPasswordReset() bool {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	return s.isPasswordReset
}

// IsVerified reports the account-verified one-shot flag.
func (s *Store) IsVerified() bool {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	return s.isVerified
}

// ResetSuccess clears the success mirror and the one-shot flags. Called by
// the bus.
func (s *Store) ResetSuccess() {
	s.mirror.ResetSuccess()
	s.flagsMu.Lock()
	s.isUpdated = false
	s.isEmailSent = false
	s.isPasswordReset = false
	s.isVerified = false
	s.flagsMu.Unlock()
}

// ResetError clears the error mirror and every lifecycle's surfaced error.
// Called by the bus.
func (s *Store) ResetError() {
	s.mirror.ResetError()
	s.login.ClearError()
	s.register.ClearError()
	s.logout.ClearError()
	s.publicProfile.ClearError()
	s.privateProfile.ClearError()
	s.follow.ClearError()
	s.unfollow.ClearError()
	s.block.ClearError()
	s.unblock.ClearError()
	s.uploadProfile.ClearError()
	s.uploadCover.ClearError()
	s.sendVerify.ClearError()
	s.verifyAccount.ClearError()
	s.forgotPassword.ClearError()
	s.resetPassword.ClearError()
	s.updateProfile.ClearError()
}

var _ signal.Resetter = (*Store)(nil)

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/school-payments/internal/core/datamodel/user"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// Mock UserRepository for testing
type mockUserRepository struct {
	users   map[string]string // username -> password hash
	userIDs map[string]string // username -> user id
	created []*user.User

	lookupErr error
	createErr error
	existsErr error
}

func newMockUserRepository() *mockUserRepository {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.DefaultCost)

	return &mockUserRepository{
		users: map[string]string{
			"admin":   string(hashedPassword),
			"trustee": string(hashedPassword),
		},
		userIDs: map[string]string{
			"admin":   "u-1",
			"trustee": "u-2",
		},
	}
}

func (m *mockUserRepository) GetPasswordForUsername(username string) (string, string, error) {
	if m.lookupErr != nil {
		return "", "", m.lookupErr
	}
	if hash, exists := m.users[username]; exists {
		return hash, m.userIDs[username], nil
	}
	return "", "", errors.New("user not found")
}

func (m *mockUserRepository) UsernameExists(username string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, exists := m.users[username]
	return exists, nil
}

func (m *mockUserRepository) CreateUser(u *user.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if u.ID == "" {
		u.ID = "u-new"
	}
	m.created = append(m.created, u)
	m.users[u.Username] = u.PasswordHash
	m.userIDs[u.Username] = u.ID
	return nil
}

var _ = ginkgo.Describe("Auth Service", func() {
	var (
		repo    *mockUserRepository
		service *Service
	)

	ginkgo.BeforeEach(func() {
		repo = newMockUserRepository()
		service = NewService(repo, NewJWTTokenGenerator("access-secret", "refresh-secret"))
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(LoginDTO{Username: "admin", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("u-1"))
			gomega.Expect(claims.Username).To(gomega.Equal("admin"))
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Authenticate(LoginDTO{Username: "admin", Password: "wrong"})

			gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
		})

		ginkgo.It("rejects an unknown username without leaking the reason", func() {
			_, err := service.Authenticate(LoginDTO{Username: "nobody", Password: "correct_password"})

			gomega.Expect(err).To(gomega.Equal(ErrInvalidCredentials))
		})

		ginkgo.It("rejects an empty username before hitting the repository", func() {
			_, err := service.Authenticate(LoginDTO{Password: "correct_password"})

			var vErr ValidationError
			gomega.Expect(errors.As(err, &vErr)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Register", func() {
		validDTO := RegisterDTO{Username: "newuser", Email: "new@example.com", Password: "longenough"}

		ginkgo.It("stores a bcrypt hash, never the raw password", func() {
			created, err := service.Register(validDTO)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(created.Username).To(gomega.Equal("newuser"))
			gomega.Expect(created.PasswordHash).ToNot(gomega.Equal("longenough"))
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("longenough"))).To(gomega.Succeed())
		})

		ginkgo.It("rejects a taken username", func() {
			dto := validDTO
			dto.Username = "admin"

			_, err := service.Register(dto)

			gomega.Expect(err).To(gomega.Equal(ErrUserExists))
			gomega.Expect(repo.created).To(gomega.BeEmpty())
		})

		ginkgo.It("rejects a short password", func() {
			dto := validDTO
			dto.Password = "short"

			_, err := service.Register(dto)

			var vErr ValidationError
			gomega.Expect(errors.As(err, &vErr)).To(gomega.BeTrue())
		})

		ginkgo.It("lets a registered user log in", func() {
			_, err := service.Register(validDTO)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			tokens, err := service.Authenticate(LoginDTO{Username: "newuser", Password: "longenough"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("issues a fresh pair from a valid refresh token", func() {
			tokens, err := service.Authenticate(LoginDTO{Username: "trustee", Password: "correct_password"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			fresh, err := service.RefreshTokens(tokens.RefreshToken)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(fresh.AccessToken).ToNot(gomega.BeEmpty())

			claims, err := service.ValidateAccessToken(fresh.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("u-2"))
		})

		ginkgo.It("rejects garbage tokens", func() {
			_, err := service.RefreshTokens("not-a-token")

			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("rejects a token signed with a different secret", func() {
			other := NewJWTTokenGenerator("other-secret", "other-refresh")
			token, err := other.GenerateAccessToken("u-1", "admin")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})

		ginkgo.It("rejects an expired token", func() {
			gen := NewJWTTokenGenerator("access-secret", "refresh-secret")
			gen.AccessTokenTTL = -time.Minute
			expired, err := gen.GenerateAccessToken("u-1", "admin")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(expired)
			gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
		})
	})
})

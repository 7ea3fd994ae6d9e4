package domain

// Role is the closed set of roles a user can hold
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTrainer    Role = "trainer"
	RoleStaff      Role = "staff"
	RoleMember     Role = "member"
)

// AllRoles lists every valid role
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RoleManager,
	RoleTrainer,
	RoleStaff,
	RoleMember,
}

// IsValid checks if the role is one of the enumerated roles
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleTrainer, RoleStaff, RoleMember:
		return true
	}
	return false
}

// String returns the role as a string
func (r Role) String() string {
	return string(r)
}

// OAuthProvider is the closed set of supported identity providers
type OAuthProvider string

const (
	ProviderGoogle   OAuthProvider = "google"
	ProviderGitHub   OAuthProvider = "github"
	ProviderFacebook OAuthProvider = "facebook"
	ProviderApple    OAuthProvider = "apple"
)

// IsValid checks if the provider is supported
func (p OAuthProvider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderGitHub, ProviderFacebook, ProviderApple:
		return true
	}
	return false
}

// MFAMethod is the second-factor delivery method
type MFAMethod string

const (
	MFAMethodTOTP MFAMethod = "totp"
	MFAMethodSMS  MFAMethod = "sms"
)

// IsValid checks if the method is supported
func (m MFAMethod) IsValid() bool {
	return m == MFAMethodTOTP || m == MFAMethodSMS
}

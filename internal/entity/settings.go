package entity

// GoogleUser is the signed-in Google account. AccessToken is obtained by the client.
type GoogleUser struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Picture     string `json:"picture"`
	AccessToken string `json:"accessToken"`
}

// Settings is the user preference blob persisted under SettingsKey.
type Settings struct {
	AutoSend    bool        `json:"autoSend"`
	UserName    string      `json:"userName"`
	UserRole    string      `json:"userRole"`
	UserCompany string      `json:"userCompany"`
	GoogleUser  *GoogleUser `json:"googleUser,omitempty"`
}

// SettingsKey is the key-value store key holding the settings blob.
const SettingsKey = "swiftscan_settings"

// DefaultSettings returns the settings used before the user saves any.
func DefaultSettings() Settings {
	return Settings{}
}

// Sender derives the draft signature from the settings.
func (s Settings) Sender() Sender {
	return Sender{Name: s.UserName, Role: s.UserRole, Company: s.UserCompany}
}

// AccessToken returns the Google access token, or "" when signed out.
func (s Settings) AccessToken() string {
	if s.GoogleUser == nil {
		return ""
	}
	return s.GoogleUser.AccessToken
}

// NeedsOnboarding reports whether the user has neither a name nor a Google account.
func (s Settings) NeedsOnboarding() bool {
	return s.UserName == "" && s.GoogleUser == nil
}

// SignIn attaches a Google account and, as the settings panel does, fills the user name.
func (s *Settings) SignIn(u GoogleUser) {
	s.GoogleUser = &u
	s.UserName = u.Name
}

// SignOut detaches the Google account and clears the user name.
func (s *Settings) SignOut() {
	s.GoogleUser = nil
	s.UserName = ""
}

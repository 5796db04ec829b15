package auth

// LoginState is the SDK's view of whether the user is logged in.
type LoginState string

const (
	LoginUnknown LoginState = "unknown"
	LoginYes     LoginState = "yes"
	LoginNo      LoginState = "no"
)

// SDKStatus is a point-in-time copy of the client SDK state.
type SDKStatus struct {
	Loaded      bool       `json:"loaded"`
	Initialized bool       `json:"initialized"`
	LoggedIn    LoginState `json:"loggedIn"`
}

const channelIDLen = 10

// ChannelIDFromAppID extracts the channel id prefix of a LIFF app id ("1234567890-AbCdEfGh").
// It returns "" when the id does not carry one.
func ChannelIDFromAppID(appID string) string {
	if len(appID) <= channelIDLen || appID[channelIDLen] != '-' {
		return ""
	}
	return appID[:channelIDLen]
}

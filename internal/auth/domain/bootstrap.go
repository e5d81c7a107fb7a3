package domain

type BootstrapData struct {
	AdminEmail    string
	AdminPassword string
	InviteCount   int
}

type BootstrapResult struct {
	AdminID     string
	InviteCodes []string
}

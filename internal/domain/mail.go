package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateStaffMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type AssignmentAcceptedMailData struct {
	FullName  string `json:"fullName"`
	Kind      string `json:"kind"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type SwapResultMailData struct {
	FullName        string `json:"fullName"`
	Approved        bool   `json:"approved"`
	ShiftStartTime  string `json:"shiftStartTime"`
	RejectionReason string `json:"rejectionReason"`
}

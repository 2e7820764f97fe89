package event

const OTPChallengeIssuedDestination string = "otp_challenge_issued"
const OTPChallengeIssuedConsumerNotification string = "otp_challenge_issued_notification"

type OTPChallengeIssuedMessage struct {
	ChallengeID    int64  `json:"challenge_id"`
	UserID         int64  `json:"user_id"`
	Email          string `json:"email"`
	Code           string `json:"code"`
	ExpiresMinutes int    `json:"expires_minutes"`
}

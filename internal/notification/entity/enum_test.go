package entity

import "testing"

func TestChannelFromString(t *testing.T) {
	cases := []struct {
		in   string
		want Channel
	}{
		{"email", ChannelEmail},
		{" email ", ChannelEmail},
		{"sms", ChannelUnknown},
		{"", ChannelUnknown},
	}

	for _, tc := range cases {
		if got := ChannelFromString(tc.in); got != tc.want {
			t.Errorf("ChannelFromString(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDeliveryStatusString(t *testing.T) {
	cases := []struct {
		status DeliveryStatus
		want   string
	}{
		{DeliveryStatusUnknown, "unknown"},
		{DeliveryStatusQueued, "queued"},
		{DeliveryStatusSent, "sent"},
		{DeliveryStatusFailed, "failed"},
		{DeliveryStatus(42), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("DeliveryStatus(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

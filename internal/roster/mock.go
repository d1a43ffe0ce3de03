package roster

import (
	"context"
	"time"
)

// MockClient serves canned answers and counts calls. Service tests use it to
// script roster behavior without a network.
type MockClient struct {
	ProfileResponse Profile
	SubmitResponse  SubmitResult

	GetProfileCalls int
	PostLetterCalls int
}

// NewMockClient starts with a healthy roster that knows nobody and accepts
// nothing.
func NewMockClient() *MockClient {
	return &MockClient{
		ProfileResponse: Profile{ServerOn: true},
		SubmitResponse:  SubmitResult{ServerOn: true},
	}
}

// SetServerDown makes both operations report an unreachable roster.
func (m *MockClient) SetServerDown() {
	m.ProfileResponse = Profile{ServerOn: false}
	m.SubmitResponse = SubmitResult{ServerOn: false}
}

// SetMember makes lookups resolve to the given routing identifiers.
func (m *MockClient) SetMember(memberCode, unitCode string) {
	m.ProfileResponse = Profile{
		ServerOn: true,
		Member:   &Member{MemberCode: memberCode, UnitCode: unitCode},
	}
}

// SetAccepting controls whether letter submissions are accepted.
func (m *MockClient) SetAccepting(accepted bool) {
	m.SubmitResponse = SubmitResult{ServerOn: true, Accepted: accepted}
}

func (m *MockClient) GetProfile(ctx context.Context, name, birth string) (Profile, error) {
	m.GetProfileCalls++
	return m.ProfileResponse, nil
}

func (m *MockClient) PostLetter(ctx context.Context, p LetterPayload, createdAt time.Time) (SubmitResult, error) {
	m.PostLetterCalls++
	return m.SubmitResponse, nil
}

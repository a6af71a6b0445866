package campaign

import (
	"testing"
	"time"

	"github.com/mailforge/campaignd/internal/campaign/command"
)

var testNow = func() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func createCommand(payload string) command.Command {
	return command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeCreate,
		ActorID:     "user-1",
		PayloadJSON: []byte(payload),
	}
}

// decideFold runs a command that must be accepted and folds its event.
func decideFold(t *testing.T, state State, cmd command.Command) State {
	t.Helper()
	decision := Decide(state, cmd, testNow)
	if !decision.Accepted() {
		t.Fatalf("command %s rejected: %+v", cmd.Type, decision.Rejections)
	}
	if len(decision.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(decision.Events))
	}
	return Fold(state, decision.Events[0])
}

func TestDecideCreateEmitsCreated(t *testing.T) {
	decision := Decide(State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com","segment_id":"seg-1"}`), testNow)
	if !decision.Accepted() {
		t.Fatalf("rejections = %+v", decision.Rejections)
	}
	state := Fold(State{}, decision.Events[0])
	if state.Status != StatusDraft {
		t.Fatalf("status = %s, want %s", state.Status, StatusDraft)
	}
	if state.Version != 1 {
		t.Fatalf("version = %d, want 1", state.Version)
	}
}

func TestDecideCreateRejectsEmptyName(t *testing.T) {
	decision := Decide(State{}, createCommand(`{"name":"  ","subject":"Hi","sender_email":"news@example.com"}`), testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeNameEmpty {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeNameEmpty)
	}
}

func TestDecideCreateRejectsBadSenderEmail(t *testing.T) {
	decision := Decide(State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"not-an-address"}`), testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeSenderEmailInvalid {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeSenderEmailInvalid)
	}
}

func TestDecideRejectsMalformedPayload(t *testing.T) {
	decision := Decide(State{}, createCommand(`{"name":"Launch",`), testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodePayloadInvalid {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodePayloadInvalid)
	}

	// A broken payload on a later command is reported as such, not as a
	// missing-field validation failure.
	state := decideFold(t, State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com"}`))
	decision = Decide(state, command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeFail,
		ActorID:     "user-1",
		PayloadJSON: []byte(`{"reason":`),
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodePayloadInvalid {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodePayloadInvalid)
	}
}

func TestDecideAcceptsAbsentOptionalPayload(t *testing.T) {
	state := decideFold(t, State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com"}`))
	decision := Decide(state, command.Command{
		CampaignID: "11111111-2222-3333-4444-555555555555",
		Type:       command.TypeCancel,
		ActorID:    "user-1",
	}, testNow)
	if !decision.Accepted() {
		t.Fatalf("rejections = %+v", decision.Rejections)
	}
}

func TestDecideCreateRejectsExistingCampaign(t *testing.T) {
	state := State{Created: true, Status: StatusDraft}
	decision := Decide(state, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com"}`), testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeAlreadyExists {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeAlreadyExists)
	}
}

func TestDecideRejectsCommandsBeforeCreate(t *testing.T) {
	decision := Decide(State{}, command.Command{
		CampaignID: "11111111-2222-3333-4444-555555555555",
		Type:       command.TypeSend,
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeNotCreated {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeNotCreated)
	}
}

func TestDecideUpdateOnlyDraft(t *testing.T) {
	state := State{Created: true, Status: StatusSending}
	decision := Decide(state, command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeUpdate,
		PayloadJSON: []byte(`{"fields":{"name":"New"}}`),
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if got, want := decision.Rejections[0].Message, "only draft campaigns can be updated"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestDecideUpdateRejectsUnknownField(t *testing.T) {
	state := State{Created: true, Status: StatusDraft}
	decision := Decide(state, command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeUpdate,
		PayloadJSON: []byte(`{"fields":{"status":"sending"}}`),
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeUpdateFieldInvalid {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeUpdateFieldInvalid)
	}
}

func TestDecideScheduleRejectsPast(t *testing.T) {
	state := State{Created: true, Status: StatusDraft, SegmentID: "seg-1"}
	decision := Decide(state, command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeSchedule,
		PayloadJSON: []byte(`{"scheduled_at":"2026-02-01T00:00:00Z"}`),
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeScheduleInPast {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeScheduleInPast)
	}
}

func TestScenarioCreateScheduleSendComplete(t *testing.T) {
	campaignID := "11111111-2222-3333-4444-555555555555"
	state := decideFold(t, State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com","segment_id":"seg-1"}`))
	state = decideFold(t, state, command.Command{
		CampaignID:  campaignID,
		Type:        command.TypeSchedule,
		PayloadJSON: []byte(`{"scheduled_at":"2026-03-02T12:00:00Z"}`),
	})
	state = decideFold(t, state, command.Command{CampaignID: campaignID, Type: command.TypeSend})
	state = decideFold(t, state, command.Command{CampaignID: campaignID, Type: command.TypeComplete})

	if state.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", state.Status, StatusCompleted)
	}
	if state.Version != 4 {
		t.Fatalf("version = %d, want 4", state.Version)
	}
	if state.CompletedAt == nil {
		t.Fatal("expected completedAt to be set")
	}
}

func TestScenarioSendWithoutSegment(t *testing.T) {
	state := decideFold(t, State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com"}`))
	decision := Decide(state, command.Command{
		CampaignID: "11111111-2222-3333-4444-555555555555",
		Type:       command.TypeSend,
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if got, want := decision.Rejections[0].Message, "Campaign must have a segment to be sent"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	if state.Version != 1 {
		t.Fatalf("version = %d, want 1", state.Version)
	}
}

func TestScenarioCancelTwice(t *testing.T) {
	campaignID := "11111111-2222-3333-4444-555555555555"
	state := decideFold(t, State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com"}`))
	state = decideFold(t, state, command.Command{CampaignID: campaignID, Type: command.TypeCancel})

	decision := Decide(state, command.Command{CampaignID: campaignID, Type: command.TypeCancel}, testNow)
	if decision.Accepted() {
		t.Fatal("expected second cancel to be rejected")
	}
	if decision.Rejections[0].Code != rejectionCodeTerminal {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeTerminal)
	}
	if state.Version != 2 {
		t.Fatalf("version = %d, want 2", state.Version)
	}
}

func TestSendKeepsSentAtAcrossPauseResume(t *testing.T) {
	campaignID := "11111111-2222-3333-4444-555555555555"
	state := decideFold(t, State{}, createCommand(`{"name":"Launch","subject":"Hi","sender_email":"news@example.com","segment_id":"seg-1"}`))
	state = decideFold(t, state, command.Command{CampaignID: campaignID, Type: command.TypeSend})
	firstSentAt := state.SentAt
	if firstSentAt == nil {
		t.Fatal("expected sentAt to be set")
	}
	state = decideFold(t, state, command.Command{CampaignID: campaignID, Type: command.TypePause})
	state = decideFold(t, state, command.Command{CampaignID: campaignID, Type: command.TypeSend})
	if state.Status != StatusSending {
		t.Fatalf("status = %s, want %s", state.Status, StatusSending)
	}
	if state.SentAt == nil || !state.SentAt.Equal(*firstSentAt) {
		t.Fatalf("sentAt = %v, want %v", state.SentAt, firstSentAt)
	}
}

func TestDecideFailRequiresReason(t *testing.T) {
	state := State{Created: true, Status: StatusSending}
	decision := Decide(state, command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeFail,
		PayloadJSON: []byte(`{"reason":"  "}`),
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeReasonEmpty {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeReasonEmpty)
	}
}

func TestDecideRecordDeliveryBeforeSend(t *testing.T) {
	state := State{Created: true, Status: StatusDraft}
	decision := Decide(state, command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeRecordDelivery,
		PayloadJSON: []byte(`{"sent":10}`),
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeDeliveryNotStarted {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeDeliveryNotStarted)
	}
}

func TestDecideRecordDeliveryRejectsNegativeDeltas(t *testing.T) {
	sentAt := testNow()
	state := State{Created: true, Status: StatusSending, SentAt: &sentAt}
	decision := Decide(state, command.Command{
		CampaignID:  "11111111-2222-3333-4444-555555555555",
		Type:        command.TypeRecordDelivery,
		PayloadJSON: []byte(`{"sent":-1}`),
	}, testNow)
	if decision.Accepted() {
		t.Fatal("expected rejection")
	}
	if decision.Rejections[0].Code != rejectionCodeDeliveryInvalid {
		t.Fatalf("code = %s, want %s", decision.Rejections[0].Code, rejectionCodeDeliveryInvalid)
	}
}

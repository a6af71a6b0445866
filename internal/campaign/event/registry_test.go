package event

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryValidateForAppendUnknownType(t *testing.T) {
	registry := NewRegistry()

	evt := Event{
		CampaignID:  "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Type:        Type("unknown.event"),
		Timestamp:   time.Unix(0, 0).UTC(),
		PayloadJSON: []byte("{}"),
	}

	_, err := registry.ValidateForAppend(evt)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
}

func TestRegistryValidateForAppendRequiresCampaignID(t *testing.T) {
	registry := CoreRegistry()

	evt := Event{
		Type:        TypeCampaignCreated,
		PayloadJSON: []byte("{}"),
	}

	_, err := registry.ValidateForAppend(evt)
	if !errors.Is(err, ErrCampaignIDRequired) {
		t.Fatalf("expected ErrCampaignIDRequired, got %v", err)
	}
}

func TestRegistryValidateForAppendCanonicalizesPayloadJSON(t *testing.T) {
	registry := CoreRegistry()

	evt := Event{
		CampaignID:  "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Type:        TypeCampaignUpdated,
		PayloadJSON: []byte("{\"b\":2,\"a\":1}"),
	}

	normalized, err := registry.ValidateForAppend(evt)
	if err != nil {
		t.Fatalf("validate event: %v", err)
	}
	if string(normalized.PayloadJSON) != `{"a":1,"b":2}` {
		t.Fatalf("PayloadJSON = %s, want %s", string(normalized.PayloadJSON), `{"a":1,"b":2}`)
	}
}

func TestRegistryValidateForAppendDefaultsEmptyPayload(t *testing.T) {
	registry := CoreRegistry()

	evt := Event{
		CampaignID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Type:       TypeCampaignCompleted,
	}

	normalized, err := registry.ValidateForAppend(evt)
	if err != nil {
		t.Fatalf("validate event: %v", err)
	}
	if string(normalized.PayloadJSON) != "{}" {
		t.Fatalf("PayloadJSON = %s, want {}", string(normalized.PayloadJSON))
	}
}

func TestRegistryValidateForAppendRejectsInvalidPayload(t *testing.T) {
	registry := CoreRegistry()

	evt := Event{
		CampaignID:  "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Type:        TypeCampaignUpdated,
		PayloadJSON: []byte("{not json"),
	}

	_, err := registry.ValidateForAppend(evt)
	if !errors.Is(err, ErrPayloadInvalid) {
		t.Fatalf("expected ErrPayloadInvalid, got %v", err)
	}
}

func TestRegistryValidateForAppendRejectsPresetVersion(t *testing.T) {
	registry := CoreRegistry()

	evt := Event{
		CampaignID:  "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Type:        TypeCampaignCreated,
		Version:     3,
		PayloadJSON: []byte("{}"),
	}

	_, err := registry.ValidateForAppend(evt)
	if !errors.Is(err, ErrVersionAssigned) {
		t.Fatalf("expected ErrVersionAssigned, got %v", err)
	}
}

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: TypeCampaignCreated}); err != nil {
		t.Fatalf("register type: %v", err)
	}
	if err := registry.Register(Definition{Type: TypeCampaignCreated}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestCoreRegistryCoversAllTypes(t *testing.T) {
	definitions := CoreRegistry().ListDefinitions()
	if len(definitions) != 9 {
		t.Fatalf("definitions length = %d, want 9", len(definitions))
	}
	for i := 1; i < len(definitions); i++ {
		if definitions[i-1].Type >= definitions[i].Type {
			t.Fatalf("definitions not sorted: %s before %s", definitions[i-1].Type, definitions[i].Type)
		}
	}
}

package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
)

func TestCatalogStoreScopesAndUnregister(t *testing.T) {
	ctx := context.Background()
	s := NewCatalogStore()

	_ = s.RegisterExtension(ctx, "acme", &entity.SkillDescriptor{ExtensionID: "weather", SkillID: "lookup", Name: "Lookup"})
	_ = s.RegisterExtension(ctx, "acme", &entity.SkillDescriptor{ExtensionID: "weather", SkillID: "alerts", Name: "Alerts"})
	_ = s.RegisterExtension(ctx, "acme", &entity.SkillDescriptor{ExtensionID: "geo", SkillID: "lookup", Name: "Geo"})
	_ = s.RegisterExtension(ctx, "other", &entity.SkillDescriptor{ExtensionID: "weather", SkillID: "lookup", Name: "Lookup"})
	_ = s.RegisterAgent(ctx, "acme", &entity.AgentDescriptor{ExtensionID: "weather", AgentID: "forecaster", Name: "Forecaster"})

	skills, _ := s.ListSkills(ctx, "acme")
	var keys []string
	for _, d := range skills {
		keys = append(keys, d.Key())
	}
	want := []string{"geo/lookup", "weather/alerts", "weather/lookup"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys = %v, want %v", keys, want)
			break
		}
	}

	if err := s.UnregisterExtension(ctx, "acme", "weather"); err != nil {
		t.Fatal(err)
	}
	if skills, _ := s.ListSkills(ctx, "acme"); len(skills) != 1 || skills[0].ExtensionID != "geo" {
		t.Errorf("after unregister: %+v", skills)
	}
	if skills, _ := s.ListSkills(ctx, "other"); len(skills) != 1 {
		t.Errorf("other scope touched: %+v", skills)
	}
	if agents, _ := s.ListAgents(ctx, "acme"); len(agents) != 1 {
		t.Errorf("agents touched by skill unregister: %+v", agents)
	}

	_ = s.UnregisterAgents(ctx, "acme", "weather")
	if agents, _ := s.ListAgents(ctx, "acme"); len(agents) != 0 {
		t.Errorf("agents = %+v", agents)
	}
	if skills, _ := s.ListSkills(ctx, "nobody"); len(skills) != 0 {
		t.Errorf("unknown scope = %+v", skills)
	}
}

func TestStateStore(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore()

	if _, err := s.Get(ctx, "weather"); !errors.Is(err, errno.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
	rec := &entity.ExtensionRecord{ID: "weather", BasePath: "/ext/weather", Source: entity.SourceDirectory, Version: "1.0.0"}
	_ = s.Save(ctx, rec)
	_ = s.Save(ctx, &entity.ExtensionRecord{ID: "geo", BasePath: "/ext/geo"})
	rec.Version = "mutated"

	got, err := s.Get(ctx, "weather")
	if err != nil || got.Version != "1.0.0" {
		t.Errorf("Get = %+v, %v", got, err)
	}
	list, _ := s.List(ctx)
	if len(list) != 2 || list[0].ID != "geo" || list[1].ID != "weather" {
		t.Errorf("List = %+v", list)
	}
	if err := s.Delete(ctx, "weather"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "weather"); !errors.Is(err, errno.ErrRecordNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

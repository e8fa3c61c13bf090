package fleet

import (
	"strings"
	"testing"
)

func TestLoadFromReader_DecodesAllFamilies(t *testing.T) {
	doc := `
combustion:
  - name: diesel-1
    capacity_kw: 300
    min_load_ratio: 0.3
    min_runtime_hrs: 4
renewable:
  - name: solar-1
    capacity_kw: 50
    model: simple_solar
    derating: 0.95
non_combustion:
  - name: hydro-1
    capacity_kw: 40
    head_m: 20
    efficiency: 0.9
storage:
  - name: battery-1
    capacity_kwh: 100
    capacity_kw: 50
    soc_min: 0.1
    soc_max: 1
    degradation:
      alpha: 0.1
      beta: 0.5
`
	m, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if len(m.Combustion) != 1 || m.Combustion[0].Name != "diesel-1" {
		t.Errorf("combustion = %+v, want one entry named diesel-1", m.Combustion)
	}
	if len(m.Renewable) != 1 || m.Renewable[0].Model != "simple_solar" {
		t.Errorf("renewable = %+v, want one simple_solar entry", m.Renewable)
	}
	if len(m.NonCombustion) != 1 || m.NonCombustion[0].HeadM != 20 {
		t.Errorf("non_combustion = %+v, want head_m 20", m.NonCombustion)
	}
	if len(m.Storage) != 1 || m.Storage[0].Degradation.Alpha != 0.1 {
		t.Errorf("storage = %+v, want degradation.alpha 0.1", m.Storage)
	}
}

func TestLoadFromReader_RejectsMalformedYAML(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("combustion: [this is not a list of maps"))
	if err == nil {
		t.Errorf("expected an error for malformed YAML, got nil")
	}
}

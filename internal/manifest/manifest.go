// Package manifest reads fleet and delivery batches from YAML:
//
//	vehicles:
//	  - {id: truck-1, capacity: 5, location: A}
//	deliveries:
//	  - {id: r1, source: A, destination: C, packages: 3, urgency: 3, deadlineHours: 1}
//
// deadlineHours may be omitted for a request without a deadline.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ilds/internal/model"
	"ilds/internal/scheduling"
)

type Document struct {
	Vehicles   []model.VehicleIn  `yaml:"vehicles" validate:"dive"`
	Deliveries []model.DeliveryIn `yaml:"deliveries" validate:"dive"`
}

type Manifest struct {
	Vehicles   []*scheduling.Vehicle
	Deliveries []*scheduling.DeliveryRequest
}

var validate = validator.New()

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a manifest. Unknown keys and duplicate ids are
// errors.
func Parse(data []byte) (*Manifest, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	m := &Manifest{}
	seen := map[string]bool{}
	for i, v := range doc.Vehicles {
		if seen[v.ID] {
			return nil, fmt.Errorf("manifest: vehicles[%d]: duplicate id %q", i, v.ID)
		}
		seen[v.ID] = true
		built, err := v.Build()
		if err != nil {
			return nil, fmt.Errorf("manifest: vehicles[%d]: %w", i, err)
		}
		m.Vehicles = append(m.Vehicles, built)
	}
	seen = map[string]bool{}
	for i, d := range doc.Deliveries {
		if d.ID != "" && seen[d.ID] {
			return nil, fmt.Errorf("manifest: deliveries[%d]: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
		built, err := d.Build()
		if err != nil {
			return nil, fmt.Errorf("manifest: deliveries[%d]: %w", i, err)
		}
		m.Deliveries = append(m.Deliveries, built)
	}
	return m, nil
}

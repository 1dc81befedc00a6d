package config

import (
	"fmt"
	"os"

	"ai-study-assistant-be/pkg/store"

	"gopkg.in/yaml.v3"
)

// RetrievalProfile is the optional YAML file that tunes scoring per deployment.
//
//	weights:
//	  primary: 3
//	  secondary: 1
//	  kinds:
//	    note: 2
//	stop_words: [apa, yang]
//	extend_stop_words: true
type RetrievalProfile struct {
	Weights struct {
		Primary   *float64           `yaml:"primary"`
		Secondary *float64           `yaml:"secondary"`
		Kinds     map[string]float64 `yaml:"kinds"`
	} `yaml:"weights"`
	StopWords []string `yaml:"stop_words"`
	// Adds StopWords to the built-in list instead of replacing it.
	ExtendStopWords bool `yaml:"extend_stop_words"`
}

func LoadRetrievalProfile(path string) (*RetrievalProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read retrieval profile: %w", err)
	}

	var p RetrievalProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse retrieval profile: %w", err)
	}
	for kind, w := range p.Weights.Kinds {
		if !store.Kind(kind).Valid() {
			return nil, fmt.Errorf("unknown source kind %q in retrieval profile", kind)
		}
		if w < 0 {
			return nil, fmt.Errorf("negative weight for %q in retrieval profile", kind)
		}
	}
	return &p, nil
}

func (p *RetrievalProfile) Apply(r *RetrievalConfig) {
	if p.Weights.Primary != nil {
		r.PrimaryMultiplier = *p.Weights.Primary
	}
	if p.Weights.Secondary != nil {
		r.SecondaryMultiplier = *p.Weights.Secondary
	}
	if len(p.Weights.Kinds) > 0 {
		kinds := make(map[store.Kind]float64, len(r.KindWeights)+len(p.Weights.Kinds))
		for k, v := range r.KindWeights {
			kinds[k] = v
		}
		for k, v := range p.Weights.Kinds {
			kinds[store.Kind(k)] = v
		}
		r.KindWeights = kinds
	}
	if len(p.StopWords) == 0 {
		return
	}
	if p.ExtendStopWords {
		words := make([]string, 0, len(r.StopWords)+len(p.StopWords))
		words = append(words, r.StopWords...)
		r.StopWords = append(words, p.StopWords...)
		return
	}
	r.StopWords = p.StopWords
}

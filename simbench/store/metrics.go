package store

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	metricsTag = "metrics"
	metricsExt = "json"
)

// UpdateMetrics merges one named metric into the metrics document for key.
// The file is created on first write; on later writes only the named metric
// subtree is replaced and everything else survives. Metric values are
// normalized through JSON so evaluators can hand over typed results.
func (s *ArtifactStore) UpdateMetrics(key CacheKey, metric string, value any) error {
	if err := key.Validate(); err != nil {
		return err
	}

	doc := map[string]any{}
	path := s.Path(key.WithTag(metricsTag), metricsExt)
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to parse existing metrics %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read metrics %s: %w", path, err)
	}

	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("failed to encode metric %s: %w", metric, err)
	}

	update := map[string]any{
		"algorithm": key.Algorithm,
		"dataset":   key.Dataset,
		"checksum":  key.Checksum,
		"metrics":   map[string]any{metric: normalized},
	}
	deepMerge(doc, update)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics document: %w", err)
	}

	w, err := s.Create(key.WithTag(metricsTag), metricsExt)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		w.Abort()
		return fmt.Errorf("failed to write metrics document: %w", err)
	}
	return w.Close()
}

// ReadMetric fetches one named metric from the metrics document for key.
// The second return reports whether the metric has been computed yet.
func (s *ArtifactStore) ReadMetric(key CacheKey, metric string) (any, bool, error) {
	path := s.Path(key.WithTag(metricsTag), metricsExt)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read metrics %s: %w", path, err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to parse metrics %s: %w", path, err)
	}
	metrics, ok := doc["metrics"].(map[string]any)
	if !ok {
		return nil, false, nil
	}
	value, ok := metrics[metric]
	return value, ok, nil
}

// normalize round-trips a value through JSON so typed evaluator results and
// plain maps merge uniformly.
func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// deepMerge writes src into dst, recursing into nested maps and replacing
// everything else.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

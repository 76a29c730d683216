package okr

// MetricProgress derives a METRIC key result's progress from its value range,
// clamped to [0,1]. A zero-width range (target == start) has no gradient to
// measure against, so it reads as done once the current value reaches the
// target and zero before that.
func MetricProgress(start, target, current float64) float64 {
	if target == start {
		if current >= target {
			return 1
		}
		return 0
	}
	return clamp((current-start)/(target-start), 0, 1)
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// AverageProgress is the unweighted mean across key results; zero when there
// are none.
func AverageProgress(keyResults []KeyResult) float64 {
	if len(keyResults) == 0 {
		return 0
	}
	var sum float64
	for _, kr := range keyResults {
		sum += kr.Progress
	}
	return sum / float64(len(keyResults))
}

// AverageConfidence averages only key results that carry a confidence value;
// nil when none do.
func AverageConfidence(keyResults []KeyResult) *float64 {
	var sum float64
	var count int
	for _, kr := range keyResults {
		if kr.Confidence != nil {
			sum += *kr.Confidence
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

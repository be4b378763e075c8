package metrics

import "strings"

const prefix = "karmachain_"

// MetricName prefixes the metric with the service namespace unless it is
// already prefixed.
func MetricName(name string) string {
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// MetricNameWithSubsystem builds "karmachain_<subsystem>_<name>".
func MetricNameWithSubsystem(subsystem, name string) string {
	if strings.HasPrefix(name, prefix) {
		return name
	}
	subsystem = strings.Trim(subsystem, "_")
	parts := make([]string, 0, 2)
	if subsystem != "" {
		parts = append(parts, subsystem)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return MetricName(strings.Join(parts, "_"))
}

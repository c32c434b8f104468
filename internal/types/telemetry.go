package types

// Telemetry metric names for CloudWatch.
const (
	// Metric Names
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"
	MetricWeatherOutcome  = "WeatherOutcome"

	// Dimension Keys
	DimEndpoint = "Endpoint"
	DimMethod   = "Method"
	DimStatus   = "Status"
	DimAction   = "Action"
	DimReason   = "Reason"

	// Metric Namespace
	MetricNamespace = "WeatherPlugin"
)

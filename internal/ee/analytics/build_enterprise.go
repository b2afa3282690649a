//go:build enterprise
// +build enterprise

package analytics

// Enterprise build uses real analytics implementation
// This file would be replaced in enterprise builds

// import "brokle/internal/ee-real/analytics"

// func New() EnterpriseAnalytics {
//     return analytics.NewEnterpriseAnalytics()
// }

// Note: Real implementation would support:
// - ML-powered predictive insights
// - Custom dashboard builder with drag-and-drop
// - Advanced data exports (CSV, JSON, Parquet)
// - Real-time anomaly detection
// - Cost optimization recommendations
// - Integration with external BI tools

package schema

// Custom string types for type safety.
type (
	// QuestionType is the vertex label of a question in the questionnaire graph.
	QuestionType string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents a SQL backend for graph or tracking storage.
	DatabaseBackend string

	// GraphBackend represents the storage engine behind the questionnaire graph.
	GraphBackend string

	// TrackingBackend represents the source of experiment runs.
	TrackingBackend string

	// MetricDirection tells whether larger raw values of a metric are better.
	MetricDirection string
)

// All question types supported.
const (
	OpenQuestion     QuestionType = "open"
	SingleChoice     QuestionType = "single_choice"
	MultiChoice      QuestionType = "multi_choice"
	BooleanChoice    QuestionType = "boolean_choice"
	TerminalQuestion QuestionType = "end"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All SQL backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All graph backends supported. The SQL ones share names with DatabaseBackend.
const (
	GraphSQLite   GraphBackend = GraphBackend(SQLiteBackend) // default
	GraphMySQL    GraphBackend = GraphBackend(MySQLBackend)
	GraphPostgres GraphBackend = GraphBackend(PostgreSQLBackend)
	GraphNeo4j    GraphBackend = "neo4j"
)

// All tracking backends supported.
const (
	TrackingMLflow   TrackingBackend = "mlflow"
	TrackingSQLite   TrackingBackend = TrackingBackend(SQLiteBackend) // default
	TrackingMySQL    TrackingBackend = TrackingBackend(MySQLBackend)
	TrackingPostgres TrackingBackend = TrackingBackend(PostgreSQLBackend)
	TrackingNone     TrackingBackend = TrackingBackend(NoneBackend)
)

// Metric directions.
const (
	HigherIsBetter MetricDirection = "higher"
	LowerIsBetter  MetricDirection = "lower"
)

// GlobalScore is the synthetic metric combining every directional metric of a model.
const GlobalScore = "Global score"

// Vertex labels outside the question types.
const (
	UserLabel     = "user"
	AnswerLabel   = "Answer"
	FeedbackLabel = "feedback"
)

// Edge labels.
const (
	PropositionEdge = "Proposition"
	AnswerEdge      = "Answer"
	FeedbackEdge    = "Feedback"
)

// Property keys stored on vertices and edges.
const (
	PropID           = "id"
	PropText         = "text"
	PropHelp         = "help text"
	PropQuestionID   = "question_id"
	PropType         = "type"
	PropCoefficients = "list_coef"
	PropMetric       = "metric"
	PropRestricted   = "modif_crypted"
	PropBestOutputs  = "best_ais"
	PropBestList     = "list_bests_AIs"
	PropTrackingID   = "mlflow_id"
	PropFormName     = "form_name"
	PropResponse     = "response"
	PropCreatedAt    = "created_at"
	PropOutputs      = "list_AIs"
)

// AffirmativeAnswer is the proposition text that unlocks restricted propositions by default.
const AffirmativeAnswer = "Yes"

// ValidQuestionTypes lists all valid question types.
var ValidQuestionTypes = map[QuestionType]struct{}{
	OpenQuestion:     {},
	SingleChoice:     {},
	MultiChoice:      {},
	BooleanChoice:    {},
	TerminalQuestion: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid SQL backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidGraphBackends lists all valid graph backends.
var ValidGraphBackends = map[GraphBackend]struct{}{
	GraphSQLite:   {},
	GraphMySQL:    {},
	GraphPostgres: {},
	GraphNeo4j:    {},
}

// ValidTrackingBackends lists all valid tracking backends.
var ValidTrackingBackends = map[TrackingBackend]struct{}{
	TrackingMLflow:   {},
	TrackingSQLite:   {},
	TrackingMySQL:    {},
	TrackingPostgres: {},
	TrackingNone:     {},
}

// DefaultHigherMetrics are metrics where a larger raw value is better.
var DefaultHigherMetrics = []string{"Accuracy", "Precision", "Recall", "F1-score", "AUC", "R2"}

// DefaultLowerMetrics are metrics where a smaller raw value is better.
var DefaultLowerMetrics = []string{"Duration", "Loss", "MAE", "MSE", "RMSE", "Emissions", "Energy"}

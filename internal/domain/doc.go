// Package domain models the daily water balance report of the LW area
// settling ponds and the derived views built from it.
//
// # Data Source
//
// Reports come from the "Rangkum" sheet of Daily_Water_Balance.xlsx. The
// sheet has a title row, a header row (row 2) and one data row per pond per
// day, starting at column B. The ingestion adapters read the sheet into
// string cells and hand them to [ParseRows], which validates the layout once
// and produces an immutable [Table].
//
// # Column Conventions
//
// Header names are Indonesian and matched case-insensitively:
//
//	Tanggal                      -> Record.Date (calendar day, time of day discarded)
//	Settling Pond                -> Record.PondID, e.g. "SP1"
//	Kriteria                     -> Record.Category (Low, Medium, High)
//	Max Rainfall to SP (mm)      -> Record.MaxRainfallMM
//	Sisa Freeboard (m)           -> Record.RemainingFreeboardM
//	Debit Keluar Actual (m3/s)   -> Record.ActualDischargeM3S
//	TSS Inflow (ton)             -> Record.TSSInflowTon
//	TSS Outflow (ton)            -> Record.TSSOutflowTon
//	Water Level (m)              -> Record.WaterLevelM
//
// Dates appear either as formatted strings ("2024-01-01", "01/01/2024") or
// as Excel serial day numbers (45292 = 2024-01-01) depending on how the cell
// was formatted. Measurement cells may be blank or hold spreadsheet sentinels
// ("-", "#N/A", "nan"); these are absent values, never zero.
//
// # Categories
//
// Kriteria is the pond status for the day. Only the three canonical labels
// are ranked (Low < Medium < High). Anything else, including a blank cell,
// is collected under Unknown so it still shows up in the breakdown but never
// raises an early-warning alert.
//
// # Derived Views
//
//	Table.Snapshot       all records of one calendar day
//	AggregateByCategory  counts and pond lists per category
//	EvaluateAlerts       High records on the latest reported day (EWS)
//	ExtractSeries        per-pond history of one measurement
//
// Every view is a pure function of the table. Duplicate (date, pond) keys are
// kept in the table and reported as a [DataConflictError] by any view that
// would have to pick one of them.
package domain

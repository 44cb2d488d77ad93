// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Orientation selects the page layout of a rendered report.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// PaperDimensions maps each orientation to its A4 page size in inches (width, height).
var PaperDimensions = map[Orientation][2]float64{
	Landscape: {11.69, 8.27},
	Portrait:  {8.27, 11.69},
}

// FontSizes holds the font sizes used on a report. All sizes derive from
// ReportConfig.AnnotationFont and are expressed in hundredths of an inch.
type FontSizes struct {
	GraphTitle  float64 `json:"graph_title" yaml:"graph_title"`
	YAxisTitle  float64 `json:"yaxis_title" yaml:"yaxis_title"`
	GAText      float64 `json:"GA_text" yaml:"GA_text"`
	Annotations float64 `json:"annotations" yaml:"annotations"`
	AxisLabels  float64 `json:"axis_labels" yaml:"axis_labels"`
	BarCounts   float64 `json:"barcounts" yaml:"barcounts"`
	LegendText  float64 `json:"legend_text" yaml:"legend_text"`
}

// ReportConfig holds the options that drive report layout and generation.
// Defaults come from the embedded default.json; a named configuration file
// overrides any subset of keys.
type ReportConfig struct {
	// Name identifies the configuration and is appended to report file names.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// PlotGradesBy selects how grades are grouped. Only "year" is supported.
	PlotGradesBy string `json:"plot_grades_by" yaml:"plot_grades_by" mapstructure:"plot_grades_by"`

	// UseIndicatorsFrom names the program sheet to query when PlotGradesBy is not "year".
	UseIndicatorsFrom string `json:"use_indicators_from,omitempty" yaml:"use_indicators_from,omitempty" mapstructure:"use_indicators_from"`

	// AnnotationFont is the base font size; every other size derives from it.
	AnnotationFont float64 `json:"annotation_font" yaml:"annotation_font" mapstructure:"annotation_font"`

	// DPI is the resolution used for raster output formats.
	DPI float64 `json:"dpi" yaml:"dpi" mapstructure:"dpi"`

	Orientation Orientation `json:"orientation" yaml:"orientation" mapstructure:"orientation"`

	// Format is the output file format (pdf, png, svg, eps, jpg, jpeg, tif, tiff).
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// MaxPlots caps the number of series drawn on one histogram.
	MaxPlots int `json:"max_plots" yaml:"max_plots" mapstructure:"max_plots"`

	AddTitle bool `json:"add_title" yaml:"add_title" mapstructure:"add_title"`

	// GraphTitle may contain a "{}" placeholder that receives the cohort.
	GraphTitle string `json:"graph_title" yaml:"graph_title" mapstructure:"graph_title"`

	AddPercents  bool `json:"add_percents" yaml:"add_percents" mapstructure:"add_percents"`
	AddLegend    bool `json:"add_legend" yaml:"add_legend" mapstructure:"add_legend"`
	AddBinRanges bool `json:"add_bin_ranges" yaml:"add_bin_ranges" mapstructure:"add_bin_ranges"`

	// ShowNDA allows a "No Data Available" bin. It is drawn for every series
	// when any series has an NDA share at or above NDAThreshold.
	ShowNDA      bool    `json:"show_NDA" yaml:"show_NDA" mapstructure:"show_nda"`
	NDAThreshold float64 `json:"NDA_threshold" yaml:"NDA_threshold" mapstructure:"nda_threshold"`

	// HeaderAttribs is a comma-separated list of header keys. Each key is
	// matched by substring against indicator sheet column names.
	HeaderAttribs string  `json:"header_attribs" yaml:"header_attribs" mapstructure:"header_attribs"`
	HeaderXLoc    float64 `json:"header_xloc" yaml:"header_xloc" mapstructure:"header_xloc"`
	HeaderYLoc    float64 `json:"header_yloc" yaml:"header_yloc" mapstructure:"header_yloc"`
	TextwrapLim   int     `json:"textwrap_lim" yaml:"textwrap_lim" mapstructure:"textwrap_lim"`

	// GradeBackupDirs is a comma-separated list of grade folders searched
	// in addition to the program folder.
	GradeBackupDirs string `json:"grade_backup_dirs" yaml:"grade_backup_dirs" mapstructure:"grade_backup_dirs"`

	// FontSizes is derived from AnnotationFont after loading.
	FontSizes FontSizes `json:"-" yaml:"-" mapstructure:"-"`
}

// PaperSize returns the page width and height in inches for the configured orientation.
func (c *ReportConfig) PaperSize() (width, height float64) {
	d, ok := PaperDimensions[c.Orientation]
	if !ok {
		d = PaperDimensions[Landscape]
	}
	return d[0], d[1]
}

// Paths holds the working directories of the tool.
type Paths struct {
	// IndicatorsDir holds "<PROGRAM> Indicators.xlsx" master sheets.
	IndicatorsDir string `json:"indicators_dir" yaml:"indicators_dir"`

	// GradesDir is the top of the grade storage hierarchy (<GradesDir>/<PROGRAM>/...).
	GradesDir string `json:"grades_dir" yaml:"grades_dir"`

	// HistogramsDir receives rendered reports.
	HistogramsDir string `json:"histograms_dir" yaml:"histograms_dir"`

	// IndexDir holds the report ledger database and its exports.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// ConfigDir holds named report configuration files.
	ConfigDir string `json:"config_dir" yaml:"config_dir"`
}

// AlfrescoConfig holds settings for mirroring spreadsheets out of an
// Alfresco content repository.
type AlfrescoConfig struct {
	// BaseURL is the repository root, e.g. "https://docs.example.edu".
	BaseURL string `json:"url" yaml:"url"`

	// RootNode is the node id of the folder to mirror ("-root-", "-shared-", or a UUID).
	RootNode string `json:"root" yaml:"root"`

	Username string `json:"-" yaml:"-"`
	Password string `json:"-" yaml:"-"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Concurrency bounds parallel downloads (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// MaxRetries is the retry budget for throttled requests (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

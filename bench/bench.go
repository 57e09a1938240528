// Package bench is the registry of supported benchmarks: where each one
// keeps its SQL scripts, which flat files its tables load from, and how its
// data set comes into being.
package bench

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Benchmark selector names accepted on the command line.
const (
	TPCH = "TPC-H"
	JCCH = "JCC-H"
	JOB  = "JOB"
)

// Choices lists the supported benchmark selectors.
var Choices = []string{TPCH, JCCH, JOB}

// Benchmark describes one provisioning recipe. SQL script paths are
// relative to AssetDir, which itself is relative to the bench-root
// directory.
type Benchmark struct {
	Name     string
	DBPrefix string
	AssetDir string

	// Tables in load order; each loads from one flat file named
	// <table><FileSuffix> inside the data directory.
	Tables     []string
	FileSuffix string

	// SchemaScripts are applied in order before the load; LoadScript is
	// piped verbatim with the data directory as working directory.
	SchemaScripts []string
	LoadScript    string

	// HasGenerator marks recipes whose data is produced by dbgen. When
	// false the data set must pre-exist and DataSource names where to
	// obtain it.
	HasGenerator bool
	Workload     string
	DataSource   string

	// PreCheckFiles requires every table file to be present in the data
	// directory before the load starts.
	PreCheckFiles bool
}

// tpchTables is the canonical TPC-H load order: small dimension tables
// first, lineitem last.
var tpchTables = []string{
	"region", "nation", "supplier", "customer",
	"part", "partsupp", "orders", "lineitem",
}

var jobTables = []string{
	"aka_name", "aka_title", "cast_info", "char_name",
	"comp_cast_type", "company_name", "company_type", "complete_cast",
	"info_type", "keyword", "kind_type", "link_type",
	"movie_companies", "movie_info", "movie_info_idx", "movie_keyword",
	"movie_link", "name", "person_info", "role_type", "title",
}

var registry = map[string]*Benchmark{
	TPCH: {
		Name:          TPCH,
		DBPrefix:      "tpch",
		AssetDir:      "tpch",
		Tables:        tpchTables,
		FileSuffix:    ".tbl",
		SchemaScripts: []string{"sql/create_without_constraints.sql", "sql/add_key_constraints.sql"},
		LoadScript:    "sql/load.sql",
		HasGenerator:  true,
		Workload:      "TPCH",
	},
	JCCH: {
		Name:          JCCH,
		DBPrefix:      "jcch",
		AssetDir:      "jcch",
		Tables:        tpchTables,
		FileSuffix:    ".tbl",
		SchemaScripts: []string{"sql/create_without_constraints.sql", "sql/add_key_constraints.sql"},
		LoadScript:    "sql/load.sql",
		HasGenerator:  true,
		Workload:      "JCCH",
	},
	JOB: {
		Name:          JOB,
		DBPrefix:      "job",
		AssetDir:      "job",
		Tables:        jobTables,
		FileSuffix:    ".csv",
		SchemaScripts: []string{"sql/schema.sql", "sql/fkindexes.sql"},
		LoadScript:    "sql/load.sql",
		HasGenerator:  false,
		DataSource:    "the IMDB data set export (http://homepages.cwi.nl/~boncz/job/imdb.tgz)",
		PreCheckFiles: true,
	},
}

// Lookup resolves a benchmark selector, case-insensitively.
func Lookup(name string) (*Benchmark, error) {
	for _, b := range registry {
		if strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return nil, errors.Errorf("unknown benchmark %q (choices: %s)", name, strings.Join(Choices, ", "))
}

// DatabaseName derives the default database name for a scale factor.
func (b *Benchmark) DatabaseName(scaleFactor int) string {
	return fmt.Sprintf("%s-sf-%d", b.DBPrefix, scaleFactor)
}

// TableFiles returns the flat-file names expected in the data directory,
// in load order.
func (b *Benchmark) TableFiles() []string {
	files := make([]string, 0, len(b.Tables))
	for _, t := range b.Tables {
		files = append(files, t+b.FileSuffix)
	}
	return files
}

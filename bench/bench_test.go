package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range Choices {
		b, err := Lookup(name)
		require.NoError(t, err)
		require.Equal(t, name, b.Name)
	}

	// selectors are matched case-insensitively
	b, err := Lookup("tpc-h")
	require.NoError(t, err)
	require.Equal(t, TPCH, b.Name)

	_, err = Lookup("TPC-C")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TPC-H, JCC-H, JOB")
}

func TestDatabaseName(t *testing.T) {
	tpch, _ := Lookup(TPCH)
	jcch, _ := Lookup(JCCH)
	job, _ := Lookup(JOB)

	assert.Equal(t, "tpch-sf-1", tpch.DatabaseName(1))
	assert.Equal(t, "tpch-sf-100", tpch.DatabaseName(100))
	assert.Equal(t, "jcch-sf-10", jcch.DatabaseName(10))
	assert.Equal(t, "job-sf-1", job.DatabaseName(1))
}

func TestTableFiles(t *testing.T) {
	tpch, _ := Lookup(TPCH)
	files := tpch.TableFiles()
	require.Len(t, files, 8)
	assert.Equal(t, "region.tbl", files[0])
	assert.Equal(t, "lineitem.tbl", files[7])

	job, _ := Lookup(JOB)
	files = job.TableFiles()
	require.Len(t, files, 21)
	assert.Contains(t, files, "movie_info.csv")
	assert.Contains(t, files, "title.csv")
}

func TestRecipeShape(t *testing.T) {
	for _, name := range Choices {
		b, err := Lookup(name)
		require.NoError(t, err)
		assert.NotEmpty(t, b.SchemaScripts, "%s needs schema scripts", name)
		assert.NotEmpty(t, b.LoadScript, "%s needs a load script", name)
		assert.NotEmpty(t, b.Tables, "%s needs tables", name)
	}

	job, _ := Lookup(JOB)
	assert.False(t, job.HasGenerator, "JOB data is downloaded, not generated")
	assert.True(t, job.PreCheckFiles)
	assert.NotEmpty(t, job.DataSource)

	tpch, _ := Lookup(TPCH)
	require.True(t, tpch.HasGenerator)
	assert.Equal(t, "TPCH", tpch.Workload)

	jcch, _ := Lookup(JCCH)
	assert.Equal(t, "JCCH", jcch.Workload)
}

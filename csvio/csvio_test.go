package csvio

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/padraicbc/coreapi/models"
	"github.com/padraicbc/coreapi/store"
)

func strp(s string) *string { return &s }
func f64p(f float64) *float64 { return &f }

func readAll(t *testing.T, b *bytes.Buffer) [][]string {
	t.Helper()
	recs, err := csv.NewReader(b).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return recs
}

func seed(t *testing.T) (*store.Memory, *models.DrillHole, *models.CoreRun) {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	dh := &models.DrillHole{HoleID: "DH-001", ProjectName: "Copper Ridge", TotalDepth: f64p(120.5)}
	if err := m.CreateDrillHole(ctx, dh); err != nil {
		t.Fatal(err)
	}
	r := &models.CoreRun{
		DrillHoleID: dh.ID, RunNumber: 1, FromDepth: 0, ToDepth: 3,
		RunLength: 3, CoreRecoveredLength: 2.85, TotalCoreRecovery: 95, DrillingDate: strp("2024-03-01"),
	}
	if err := m.CreateCoreRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	return m, dh, r
}

func TestFilename(t *testing.T) {
	g := NewWithT(t)
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	g.Expect(Filename("core_logging_runs", ts)).To(Equal("core_logging_runs_20240309_140507.csv"))
}

func TestWriteIntervals(t *testing.T) {
	g := NewWithT(t)
	dh := &models.DrillHole{HoleID: "DH-001", ProjectName: "Copper Ridge"}
	run := &models.CoreRun{RunNumber: 2, DrillHole: dh}

	var buf bytes.Buffer
	g.Expect(WriteIntervals(&buf, []models.CoreInterval{{
		FromDepth: 1.5, ToDepth: 3, IntervalLength: 1.5,
		Lithology: strp("Granite"), Comments: strp("sheared, oxidised"),
		FractureFrequency: func() *int { n := 4; return &n }(),
		RQDContribution:   0.8, CoreRun: run,
	}})).To(Succeed())

	recs := readAll(t, &buf)
	g.Expect(recs).To(HaveLen(2))
	g.Expect(recs[0]).To(Equal(IntervalColumns))
	g.Expect(recs[1]).To(HaveLen(len(IntervalColumns)))
	g.Expect(recs[1][:6]).To(Equal([]string{"DH-001", "Copper Ridge", "2", "1.5", "3", "1.5"}))
	g.Expect(recs[1][6]).To(Equal("Granite"))
	g.Expect(recs[1][14]).To(Equal("4"))
	g.Expect(recs[1][16]).To(BeEmpty())
	g.Expect(recs[1][18]).To(Equal("sheared, oxidised"))
}

func TestWriteLeapfrog_PrefersCodes(t *testing.T) {
	g := NewWithT(t)
	run := &models.CoreRun{DrillHole: &models.DrillHole{HoleID: "DH-7"}}

	var buf bytes.Buffer
	g.Expect(WriteLeapfrog(&buf, []models.CoreInterval{
		{
			FromDepth: 0, ToDepth: 1, CoreRun: run,
			Lithology: strp("Granite"), LithologyCode: strp("GRN"),
			AlterationType: strp("Sericite"), AlterationStyle: strp("pervasive"),
			MineralizationStyle: strp("disseminated"),
			StructuralFeatures:  strp(`["vein"]`), FractureOrientation: strp("45/120"),
			RecoveryPercentage: f64p(98.5), RQDContribution: 0.9,
		},
		{
			FromDepth: 1, ToDepth: 2, CoreRun: run,
			Lithology: strp("Basalt"), LithologyCode: strp(""),
			FractureOrientation: strp("30/090"),
		},
	})).To(Succeed())

	recs := readAll(t, &buf)
	g.Expect(recs[0]).To(Equal(LeapfrogColumns))
	g.Expect(recs[1]).To(Equal([]string{
		"DH-7", "0", "1", "GRN", "Sericite", "disseminated", "98.5", "0.9", `["vein"]`, "",
	}))
	g.Expect(recs[2][3]).To(Equal("Basalt"))
	g.Expect(recs[2][8]).To(Equal("30/090"))
}

func TestExport_RunsAndScope(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	m, _, _ := seed(t)
	other := &models.DrillHole{HoleID: "DH-002", ProjectName: "Gold Flat"}
	g.Expect(m.CreateDrillHole(ctx, other)).To(Succeed())
	g.Expect(m.CreateCoreRun(ctx, &models.CoreRun{DrillHoleID: other.ID, RunNumber: 1, ToDepth: 2, RunLength: 2})).To(Succeed())

	var buf bytes.Buffer
	g.Expect(Export(ctx, m, &buf, Runs, store.Scope{ProjectName: "copper"})).To(Succeed())
	recs := readAll(t, &buf)
	g.Expect(recs).To(HaveLen(2))
	g.Expect(recs[0]).To(Equal(RunColumns))
	g.Expect(recs[1]).To(Equal([]string{
		"DH-001", "Copper Ridge", "1", "0", "3", "3", "2.85", "95", "0", "0", "2024-03-01",
	}))

	buf.Reset()
	g.Expect(Export(ctx, m, &buf, DrillHoles, store.Scope{DrillHoleID: other.ID})).To(Succeed())
	recs = readAll(t, &buf)
	g.Expect(recs).To(HaveLen(2))
	g.Expect(recs[0]).To(Equal(DrillHoleColumns))
	g.Expect(recs[1][0]).To(Equal("DH-002"))

	buf.Reset()
	g.Expect(Export(ctx, m, &buf, DrillHoles, store.Scope{DrillHoleID: other.ID, ProjectName: "copper"})).To(Succeed())
	g.Expect(readAll(t, &buf)).To(Equal([][]string{DrillHoleColumns}))

	buf.Reset()
	g.Expect(Export(ctx, m, &buf, DrillHoles, store.Scope{DrillHoleID: other.ID, ProjectName: "gold"})).To(Succeed())
	recs = readAll(t, &buf)
	g.Expect(recs).To(HaveLen(2))
	g.Expect(recs[1][0]).To(Equal("DH-002"))

	g.Expect(Export(ctx, m, &buf, Kind("tables"), store.Scope{})).To(MatchError(ErrUnknownKind))
}

func TestExport_QAQCItems(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	m := store.NewMemory()
	g.Expect(m.CreateQAQCItem(ctx, &models.QAQCItem{
		Title: "Missing photo", Type: "photo", Priority: "high", Status: "open",
		CreatedDate: strp("2024-05-01"), CommentsCount: 2,
	})).To(Succeed())

	var buf bytes.Buffer
	g.Expect(Export(ctx, m, &buf, QAQCItems, store.Scope{})).To(Succeed())
	recs := readAll(t, &buf)
	g.Expect(recs[0]).To(Equal(QAQCItemColumns))
	g.Expect(recs[1][1:6]).To(Equal([]string{"Missing photo", "", "photo", "high", "open"}))
	g.Expect(recs[1][9]).To(Equal("2024-05-01"))
	g.Expect(recs[1][12:]).To(Equal([]string{"2", "0"}))
}

func TestImport_IntervalsSkipsUnresolvedRows(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	m, _, run := seed(t)

	in := strings.Join([]string{
		"Drill_Hole,Core_Run,From_Depth,To_Depth,Lithology,Alteration,RQD,Comments",
		"DH-001,Run 1,0,1.2,Granite,Sericite,0.9,fresh",
		"DH-404,Run 1,1.2,2,Basalt,,,",
		"DH-001,Run 9,1.2,2,Basalt,,,",
		"DH-001,1,1.2,2.5,Schist,,,",
		"DH-001,Run 1,abc,3,Schist,,,",
	}, "\n")

	res, err := NewImporter(m, zap.NewNop()).Import(ctx, strings.NewReader(in), Intervals)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Success).To(BeTrue())
	g.Expect(res.ImportedCount).To(Equal(2))
	g.Expect(res.Errors).To(Equal([]string{
		"Row 3: Drill hole DH-404 not found",
		"Row 4: Core run Run 9 not found for drill hole DH-001",
		`Row 6: from_depth: invalid number "abc"`,
	}))

	intervals, err := m.ListCoreIntervals(ctx, store.CoreIntervalFilter{CoreRunID: run.ID})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(intervals).To(HaveLen(2))
	g.Expect(*intervals[0].Lithology).To(Equal("Granite"))
	g.Expect(*intervals[0].AlterationType).To(Equal("Sericite"))
	g.Expect(intervals[0].RQDContribution).To(Equal(0.9))
	g.Expect(intervals[0].IntervalLength).To(Equal(1.2))
	g.Expect(intervals[0].LoggedDate).NotTo(BeNil())
	g.Expect(intervals[1].IntervalLength).To(BeNumerically("~", 1.3, 1e-9))
}

func TestImport_RunsComputesMetrics(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	m, dh, _ := seed(t)

	in := "hole_id,run_number,from_depth,to_depth,core_recovered_length,rqd_length,total_core_recovery\n" +
		"DH-001,2,3,6,2.7,2.1,1\n" +
		"DH-001,3,6,9,,0,\n"

	res, err := NewImporter(m, zap.NewNop()).Import(ctx, strings.NewReader(in), Runs)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.ImportedCount).To(Equal(1))
	g.Expect(res.Errors).To(Equal([]string{"Row 3: core_recovered_length is required"}))

	r, err := m.GetCoreRunByNumber(ctx, dh.ID, 2)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(r.RunLength).To(Equal(3.0))
	g.Expect(r.TotalCoreRecovery).To(Equal(90.0))
	g.Expect(r.RQDPercentage).To(Equal(70.0))
}

func TestImport_DrillHolesRejectsDuplicates(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	m, _, _ := seed(t)

	in := "\ufeffHole_ID,Project,Collar_X,Collar_Y,Collar_Z,Total_Depth,Start_Date\n" +
		"DH-001,Copper Ridge,,,,,\n" +
		"DH-010,Arrow Lake,512300.5,6801200,412,250,2024-02-01\n" +
		"DH-011,Arrow Lake,,,,,01/02/2024\n"

	res, err := NewImporter(m, zap.NewNop()).Import(ctx, strings.NewReader(in), DrillHoles)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.ImportedCount).To(Equal(1))
	g.Expect(res.Errors).To(HaveLen(2))
	g.Expect(res.Errors[0]).To(Equal("Row 2: Drill hole DH-001 already exists"))
	g.Expect(res.Errors[1]).To(HavePrefix("Row 4: start_date: time data"))

	dh, err := m.GetDrillHoleByHoleID(ctx, "DH-010")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(dh.ProjectName).To(Equal("Arrow Lake"))
	g.Expect(*dh.LocationX).To(Equal(512300.5))
	g.Expect(*dh.Elevation).To(Equal(412.0))
	g.Expect(*dh.StartDate).To(Equal("2024-02-01"))
}

func TestImport_StrayQuotesKeepRow(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	m := store.NewMemory()

	in := "hole_id,project_name\n" +
		"DH-010,P\n" +
		"DH-011,a\"b\n" +
		"DH-012,\"x\"y\"\n" +
		"DH-013,P\n"

	res, err := NewImporter(m, zap.NewNop()).Import(ctx, strings.NewReader(in), DrillHoles)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Errors).To(BeEmpty())
	g.Expect(res.ImportedCount).To(Equal(4))

	dh, err := m.GetDrillHoleByHoleID(ctx, "DH-011")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(dh.ProjectName).To(Equal(`a"b`))

	dh, err = m.GetDrillHoleByHoleID(ctx, "DH-012")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(dh.ProjectName).To(Equal(`x"y`))

	_, err = m.GetDrillHoleByHoleID(ctx, "DH-013")
	g.Expect(err).NotTo(HaveOccurred())
}

func TestImport_EmptyAndUnknown(t *testing.T) {
	g := NewWithT(t)
	im := NewImporter(store.NewMemory(), zap.NewNop())

	res, err := im.Import(context.Background(), strings.NewReader(""), Intervals)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res.Success).To(BeTrue())
	g.Expect(res.Errors).To(BeEmpty())

	_, err = im.Import(context.Background(), strings.NewReader("a\n"), QAQCItems)
	g.Expect(err).To(MatchError(ErrUnknownKind))
}

func TestParseRunNumber(t *testing.T) {
	g := NewWithT(t)
	for in, want := range map[string]int{"Run 3": 3, "3": 3, " run 12 ": 12} {
		n, err := ParseRunNumber(in)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(n).To(Equal(want))
	}
	_, err := ParseRunNumber("Run X")
	g.Expect(err).To(HaveOccurred())
}

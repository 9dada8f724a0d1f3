package trace

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLiteWriter", func() {
	var (
		w  *SQLiteWriter
		st *SimulationTrace
	)

	BeforeEach(func() {
		w = NewSQLiteWriter(filepath.Join(GinkgoT().TempDir(), "trace.sqlite3"))
		Expect(w.Init()).To(Succeed())

		st = NewSimulationTrace(TraceConfig{Level: TraceLevelOccupancy})
		st.RecordTransition(TransitionRecord{ProcessID: 1, From: "ready_queue", To: "in_cpu", Clock: 0})
		st.RecordTransition(TransitionRecord{ProcessID: 1, From: "in_cpu", To: "finished", Clock: 50})
		st.RecordOccupancy(OccupancyRecord{Device: DeviceCPU, ProcessID: 1, Clock: 0})
	})

	AfterEach(func() {
		Expect(w.Close()).To(Succeed())
	})

	countRows := func(table string) int {
		var n int
		Expect(w.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE run_id = ?", st.RunID).Scan(&n)).To(Succeed())
		return n
	}

	It("should buffer rows until flushed", func() {
		Expect(w.Write(st)).To(Succeed())
		Expect(countRows("transitions")).To(BeZero())

		Expect(w.Flush()).To(Succeed())
		Expect(countRows("transitions")).To(Equal(2))
		Expect(countRows("occupancy")).To(Equal(1))
	})

	It("should keep the transition fields", func() {
		Expect(w.Write(st)).To(Succeed())
		Expect(w.Flush()).To(Succeed())

		var (
			from, to string
			clock    int64
		)
		err := w.QueryRow(
			"SELECT from_state, to_state, clock FROM transitions WHERE run_id = ? AND to_state = 'finished'",
			st.RunID).Scan(&from, &to, &clock)
		Expect(err).NotTo(HaveOccurred())
		Expect(from).To(Equal("in_cpu"))
		Expect(clock).To(Equal(int64(50)))
	})

	It("should flush on its own when the batch is full", func() {
		w.batchSize = 3

		Expect(w.Write(st)).To(Succeed())

		Expect(countRows("transitions")).To(Equal(2))
	})

	It("should be a no-op to flush or close twice", func() {
		Expect(w.Write(st)).To(Succeed())
		Expect(w.Close()).To(Succeed())
		Expect(w.Flush()).To(Succeed())
	})
})

package monitoring

import (
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
}

type sampleRun struct {
	name   string
	paused bool
}

func (r *sampleRun) Name() string {
	return r.name
}

func (r *sampleRun) Pause() {
	r.paused = true
}

func (r *sampleRun) Continue() {
	r.paused = false
}

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should register runs", func() {
		m.RegisterRun(&sampleRun{name: "run1"})
		m.RegisterRun(&sampleRun{name: "run2"})

		Expect(m.runs).To(HaveLen(2))
	})

	It("should create and complete progress bars", func() {
		bar := m.CreateProgressBar("trials", 1000)
		Expect(m.progressBars).To(HaveLen(1))
		Expect(bar.Total).To(Equal(uint64(1000)))
		Expect(bar.ID).NotTo(BeEmpty())

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})

	It("should accumulate progress", func() {
		bar := m.CreateProgressBar("trials", 100)

		bar.IncrementInProgress(10)
		bar.MoveInProgressToFinished(4)
		bar.IncrementFinished(6)

		Expect(bar.InProgress).To(Equal(uint64(6)))
		Expect(bar.Finished).To(Equal(uint64(10)))
	})

	It("should walk int fields", func() {
		s := &sampleStruct{field1: 1}

		elem, err := walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk string fields", func() {
		s := &sampleStruct{field2: "abc"}

		elem, err := walkFields(s, "field2")

		Expect(err).To(BeNil())
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should walk recursively", func() {
		s := &sampleStruct{
			field3: &sampleStruct{field1: 1},
		}

		elem, err := walkFields(s, "field3.field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk slice elements", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{field1: 7}, {}},
		}

		elem, err := walkFields(s, "field4.0.field1")

		Expect(err).To(BeNil())
		Expect(elem.Int()).To(Equal(int64(7)))
	})

	It("should report bad slice indices", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{}},
		}

		_, err := walkFields(s, "field4.notanumber")

		Expect(err).To(HaveOccurred())
	})
})

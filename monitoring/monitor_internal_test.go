package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"

	"github.com/sarchlab/wbsim/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type sampleStruct struct {
	field1 int
	field2 string
	field3 *sampleStruct
	field4 []sampleStruct
}

type sampleComponent struct {
	*sim.ComponentBase

	Count  int
	buffer sim.Buffer
	queue  sim.Buffer
	unused sim.Buffer
}

func newSampleComponent(name string) *sampleComponent {
	return &sampleComponent{
		ComponentBase: sim.NewComponentBase(name),
		Count:         3,
		buffer:        sim.NewBuffer(name+".Buf", 10),
		queue:         sim.NewBuffer(name+".Queue", 2),
	}
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		engine *sim.SerialEngine
		server *httptest.Server
	)

	get := func(path string) (int, string) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, string(body)
	}

	BeforeEach(func() {
		m = NewMonitor()
		engine = sim.NewSerialEngine()
		m.RegisterEngine(engine)
		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should register components and internal buffers", func() {
		m.RegisterComponent(newSampleComponent("Comp"))

		Expect(m.components).To(HaveLen(1))
		Expect(m.buffers).To(HaveLen(2))
	})

	It("should list components", func() {
		m.RegisterComponent(newSampleComponent("A"))
		m.RegisterComponent(newSampleComponent("B"))

		code, body := get("/api/list_components")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`["A","B"]`))
	})

	It("should serialize a component", func() {
		m.RegisterComponent(newSampleComponent("Comp"))

		code, body := get("/api/component/Comp")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("Count"))
	})

	It("should return 404 for unknown components", func() {
		code, _ := get("/api/component/Nobody")

		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should reject unknown fields", func() {
		m.RegisterComponent(newSampleComponent("Comp"))

		req := url.PathEscape(`{"comp_name":"Comp","field_name":"Missing"}`)
		code, _ := get("/api/field/" + req)

		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should report the engine time", func() {
		code, body := get("/api/now")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"now":0}`))
	})

	It("should pause and continue the engine", func() {
		code, _ := get("/api/pause")
		Expect(code).To(Equal(http.StatusOK))

		code, _ = get("/api/continue")
		Expect(code).To(Equal(http.StatusOK))

		Expect(engine.Run()).To(Succeed())
	})

	It("should sort buffers by fill level", func() {
		c := newSampleComponent("Comp")
		m.RegisterComponent(c)

		c.buffer.Push(1)
		c.buffer.Push(2)
		c.buffer.Push(3)
		c.queue.Push(1)

		_, body := get("/api/hangdetector/buffers?sort=level")
		Expect(body).To(MatchJSON(`[
			{"buffer":"Comp.Buf","level":3,"cap":10},
			{"buffer":"Comp.Queue","level":1,"cap":2}
		]`))

		_, body = get("/api/hangdetector/buffers?sort=percent&limit=1")
		Expect(body).To(MatchJSON(`[{"buffer":"Comp.Queue","level":1,"cap":2}]`))

		_, body = get("/api/hangdetector/buffers?offset=5")
		Expect(body).To(MatchJSON(`[]`))
	})

	It("should reject bad buffer queries", func() {
		code, _ := get("/api/hangdetector/buffers?sort=name")
		Expect(code).To(Equal(http.StatusBadRequest))

		code, _ = get("/api/hangdetector/buffers?limit=-1")
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should report progress", func() {
		bar := m.CreateProgressBar("Cycles", 4)
		bar.IncrementInProgress(2)
		bar.MoveInProgressToFinished(1)

		_, body := get("/api/progress")

		var bars []ProgressBarSnapshot
		Expect(json.Unmarshal([]byte(body), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Cycles"))
		Expect(bars[0].Total).To(Equal(uint64(4)))
		Expect(bars[0].Finished).To(Equal(uint64(1)))
		Expect(bars[0].InProgress).To(Equal(uint64(1)))

		m.CompleteProgressBar(bar)

		_, body = get("/api/progress")
		Expect(body).To(MatchJSON(`[]`))
	})

	It("should report process resources", func() {
		code, body := get("/api/resource")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("memory_size"))
	})

	It("should start a server on a random port", func() {
		u, err := NewMonitor().WithPortNumber(80).StartServer()

		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(HavePrefix("http://localhost:"))
	})

	It("should walk int fields", func() {
		s := &sampleStruct{
			field1: 1,
		}

		elem, err := m.walkFields(s, "field1")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Int))
		Expect(elem.Int()).To(Equal(int64(1)))
	})

	It("should walk struct", func() {
		s := &sampleStruct{
			field3: &sampleStruct{},
		}

		elem, err := m.walkFields(s, "field3")

		Expect(err).To(BeNil())
		Expect(elem.Kind()).To(Equal(reflect.Struct))
		Expect(elem.Type().Name()).To(Equal("sampleStruct"))
	})

	It("should walk slice recursively", func() {
		s := &sampleStruct{
			field4: []sampleStruct{{
				field4: []sampleStruct{
					{field2: "abc"},
				},
			}, {}},
		}

		elem, err := m.walkFields(s, "field4.0.field4.0.field2")

		Expect(err).To(BeNil())
		Expect(elem.String()).To(Equal("abc"))
	})

	It("should fail on bad paths", func() {
		s := &sampleStruct{field4: []sampleStruct{{}}}

		_, err := m.walkFields(s, "field4.3")
		Expect(err).To(HaveOccurred())

		_, err = m.walkFields(s, "field3.field1")
		Expect(err).To(HaveOccurred())

		_, err = m.walkFields(s, "field1.x")
		Expect(err).To(HaveOccurred())
	})
})

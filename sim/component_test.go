package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("ComponentBase", func() {
	var (
		mockCtrl  *gomock.Controller
		component *ComponentBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		component = NewComponentBase("test_comp")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should set and get name", func() {
		Expect(component.Name()).To(Equal("test_comp"))
	})

	It("should invoke hooks in order", func() {
		hook1 := NewMockHook(mockCtrl)
		hook2 := NewMockHook(mockCtrl)
		pos := &HookPos{Name: "Test"}
		ctx := HookCtx{Domain: component, Pos: pos, Item: 1}

		component.AcceptHook(hook1)
		component.AcceptHook(hook2)

		first := hook1.EXPECT().Func(ctx)
		hook2.EXPECT().Func(ctx).After(first)

		Expect(component.NumHooks()).To(Equal(2))
		component.InvokeHook(ctx)
	})

	It("should adapt functions to hooks", func() {
		var got []interface{}
		component.AcceptHook(HookFunc(func(ctx HookCtx) {
			got = append(got, ctx.Item)
		}))

		component.InvokeHook(HookCtx{Domain: component, Item: "x"})

		Expect(got).To(Equal([]interface{}{"x"}))
	})
})

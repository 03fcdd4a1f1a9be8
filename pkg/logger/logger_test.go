package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cep-resolver/pkg/logger"
)

var _ = Describe("Logger", func() {
	ctx := context.Background()

	Describe("New", func() {
		It("should create a dev logger", func() {
			Expect(logger.New("info", false, "dev")).NotTo(BeNil())
		})

		It("should create a prod logger", func() {
			Expect(logger.New("info", true, "prod")).NotTo(BeNil())
		})
	})

	DescribeTable("level handling",
		func(level string, enabled, disabled slog.Level) {
			log := logger.NewWithWriter(&bytes.Buffer{}, level, false, "dev")
			Expect(log.Enabled(ctx, enabled)).To(BeTrue())
			Expect(log.Enabled(ctx, disabled)).To(BeFalse())
		},
		Entry("debug", "debug", slog.LevelDebug, slog.LevelDebug-4),
		Entry("info", "info", slog.LevelInfo, slog.LevelDebug),
		Entry("warn", "WARN", slog.LevelWarn, slog.LevelInfo),
		Entry("error", "error", slog.LevelError, slog.LevelWarn),
		Entry("unknown falls back to info", "verbose", slog.LevelInfo, slog.LevelDebug),
	)

	Describe("NewWithWriter", func() {
		var buf *bytes.Buffer

		BeforeEach(func() {
			buf = &bytes.Buffer{}
		})

		It("should write JSON with the environment attribute in prod", func() {
			log := logger.NewWithWriter(buf, "info", false, "prod")
			log.Info("lookup served", slog.String("cep", "01310100"))

			var entry map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
			Expect(entry).To(HaveKeyWithValue("msg", "lookup served"))
			Expect(entry).To(HaveKeyWithValue("environment", "prod"))
			Expect(entry).To(HaveKeyWithValue("cep", "01310100"))
		})

		It("should write uncolored text when the writer is not a terminal", func() {
			log := logger.NewWithWriter(buf, "info", false, "dev")
			log.Warn("provider unhealthy", slog.String("provider", "viacep"))

			out := buf.String()
			Expect(out).To(ContainSubstring("provider unhealthy"))
			Expect(out).To(ContainSubstring("provider=viacep"))
			Expect(out).To(ContainSubstring("environment=dev"))
			Expect(out).NotTo(ContainSubstring("\x1b["))
		})
	})
})

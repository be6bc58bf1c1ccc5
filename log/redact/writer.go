package redact

import "io"

// Writer 写出前执行脱敏
type Writer struct {
	w io.Writer
	r *Redactor
}

// NewWriter 包装 w
func NewWriter(w io.Writer, r *Redactor) *Writer {
	return &Writer{w: w, r: r}
}

// Write 返回值以原始长度为准，避免 zerolog 认为写入不完整
func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 || w.r.Len() == 0 {
		return w.w.Write(p)
	}

	text := string(p)
	out := w.r.Apply(text)
	if out == text {
		return w.w.Write(p)
	}
	if _, err := io.WriteString(w.w, out); err != nil {
		return 0, err
	}
	return len(p), nil
}

package tablewriter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Column 表格列定义
type Column struct {
	Name         string // 列名
	SeparateLine bool   // 是否单独一行显示
	RightAlign   bool   // 是否右对齐，用于金额列
}

type columnCfg struct {
	rightAlign bool
}

// ColumnOption 列选项
type ColumnOption func(*columnCfg)

// RightAlign 列内容右对齐
func RightAlign() ColumnOption {
	return func(c *columnCfg) {
		c.rightAlign = true
	}
}

// TableWriter 按列对齐输出表格，空列不输出
type TableWriter struct {
	cols []Column
	rows []map[string]string
}

// Col 创建普通列
func Col(name string, opts ...ColumnOption) Column {
	cfg := &columnCfg{}
	for _, o := range opts {
		o(cfg)
	}
	return Column{
		Name:       name,
		RightAlign: cfg.rightAlign,
	}
}

// NewLineCol 创建单独行列，值非空时在行下方输出
func NewLineCol(name string) Column {
	return Column{
		Name:         name,
		SeparateLine: true,
	}
}

func New(cols ...Column) *TableWriter {
	return &TableWriter{
		cols: cols,
	}
}

// Write 写入一行数据，nil 值视为空
func (w *TableWriter) Write(r map[string]interface{}) {
	row := make(map[string]string, len(r))
	for k, v := range r {
		if v == nil {
			continue
		}
		row[k] = fmt.Sprint(v)
	}
	w.rows = append(w.rows, row)
}

// Flush 输出表头和所有行
func (w *TableWriter) Flush(out io.Writer) error {
	// 只保留至少有一行有值的普通列
	var cols []Column
	widths := map[string]int{}
	for _, col := range w.cols {
		if col.SeparateLine {
			continue
		}
		width := 0
		for _, row := range w.rows {
			width = max(width, utf8.RuneCountInString(row[col.Name]))
		}
		if width == 0 {
			continue
		}
		cols = append(cols, col)
		widths[col.Name] = max(width, utf8.RuneCountInString(col.Name))
	}

	line := func(cell func(Column) string) error {
		fields := make([]string, 0, len(cols))
		for _, col := range cols {
			fields = append(fields, pad(cell(col), widths[col.Name], col.RightAlign))
		}
		_, err := fmt.Fprintln(out, strings.TrimRight(strings.Join(fields, "  "), " "))
		return err
	}

	if len(cols) > 0 {
		if err := line(func(c Column) string { return c.Name }); err != nil {
			return err
		}
	}
	for _, row := range w.rows {
		if len(cols) > 0 {
			if err := line(func(c Column) string { return row[c.Name] }); err != nil {
				return err
			}
		}
		for _, col := range w.cols {
			if !col.SeparateLine {
				continue
			}
			if val := row[col.Name]; val != "" {
				if _, err := fmt.Fprintf(out, "  %s: %s\n", col.Name, val); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func pad(s string, width int, right bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const readBufferSize = 1 << 20

// readLines 流式读取文件，跳过首行表头，其余每行写入 out；返回前总会关闭 out
//
// ctx 取消时停止读取并返回 ctx.Err()，调用方按读取失败处理。
func readLines(ctx context.Context, path string, out chan<- string, onLine func()) error {
	defer close(out)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, readBufferSize)
	header := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimRight(line, "\r\n")
			if header {
				header = false
			} else {
				select {
				case out <- line:
					if onLine != nil {
						onLine()
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("读取文件失败: %w", err)
		}
	}
}

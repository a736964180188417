package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeLogsRequestIDAndError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))

	err := errors.New("boom")
	Time(ctx, "routes.search")(&err)
	assert.Contains(t, buf.String(), "req_id=abc op=routes.search")
	assert.Contains(t, buf.String(), "err=boom")

	buf.Reset()
	var ok error
	Time(context.Background(), "noop")(&ok)
	assert.Contains(t, buf.String(), "req_id= op=noop")
	assert.NotContains(t, buf.String(), "err=")
}

package sink

import (
	"context"
	"log/slog"
	"time"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"qos-probe/internal/sample"
)

// GreptimeWriter streams arrival samples to GreptimeDB via the ingester
// client. Disconnect markers stay local; they only matter for the run file
// and the report.
type GreptimeWriter struct {
	client  greptime.Client
	db      string
	table   string
	runID   string
	netCond string
	log     *slog.Logger
}

// NewGreptimeWriter creates a new GreptimeDB writer and auto-creates the
// latency table if needed.
func NewGreptimeWriter(endpoint, database, tableName, runID, netCond string, l *slog.Logger) (*GreptimeWriter, error) {
	if tableName == "" {
		tableName = "qos_latency"
	}
	if l == nil {
		l = slog.Default()
	}
	ctx := ingesterContext.NewContext(context.Background())
	client, err := greptime.NewClient(ctx, &greptime.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	ddl := `
CREATE TABLE IF NOT EXISTS ` + tableName + ` (
  run_id STRING TAG,
  net_cond STRING TAG,
  seq_num BIGINT,
  send_time BIGINT,
  latency_ms BIGINT,
  qos BIGINT,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='30d')
`
	if _, err := client.SQL(ctx, ddl); err != nil {
		return nil, err
	}

	return &GreptimeWriter{
		client:  client,
		db:      database,
		table:   tableName,
		runID:   runID,
		netCond: netCond,
		log:     l,
	}, nil
}

// WriteSample inserts one arrival row.
func (w *GreptimeWriter) WriteSample(s sample.Sample) error {
	a, ok := s.(sample.Arrival)
	if !ok {
		return nil
	}

	ctx := ingesterContext.NewContext(context.Background())

	tbl := table.New(w.table)
	tbl.AddTagColumn("run_id", types.StringType, 0)
	tbl.AddTagColumn("net_cond", types.StringType, 0)
	tbl.AddFieldColumn("seq_num", types.Int64Type)
	tbl.AddFieldColumn("send_time", types.Int64Type)
	tbl.AddFieldColumn("latency_ms", types.Int64Type)
	tbl.AddFieldColumn("qos", types.Int64Type)
	tbl.SetTimeIndex("ts", types.TimestampType)

	tbl.AppendTagValue("run_id", w.runID)
	tbl.AppendTagValue("net_cond", w.netCond)
	tbl.AppendFieldValue("seq_num", a.SeqNum)
	tbl.AppendFieldValue("send_time", a.SendTime)
	tbl.AppendFieldValue("latency_ms", a.Latency)
	tbl.AppendFieldValue("qos", int64(a.QoS))
	tbl.AppendTimeIndex(time.UnixMilli(a.RecvTime))

	if err := w.client.Write(ctx, w.db, []*table.Table{tbl}); err != nil {
		w.log.Error("greptime write failed", "err", err)
		return err
	}
	return nil
}

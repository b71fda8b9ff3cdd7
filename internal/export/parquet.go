package export

import (
	"fmt"
	"io"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"climb-pacer/internal/pacing"
)

type parquetRow struct {
	Course    string  `parquet:"name=course, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Segment   int32   `parquet:"name=segment, type=INT32"`
	DistanceM float64 `parquet:"name=distance_m, type=DOUBLE"`
	Grade     float64 `parquet:"name=grade, type=DOUBLE"`
	PowerW    float64 `parquet:"name=power_w, type=DOUBLE"`
	SpeedMPS  float64 `parquet:"name=speed_mps, type=DOUBLE"`
	TimeS     float64 `parquet:"name=time_s, type=DOUBLE"`
	ElapsedS  float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	WBalanceJ float64 `parquet:"name=w_balance_j, type=DOUBLE"`
	Factor    float64 `parquet:"name=scaling_factor, type=DOUBLE"`
	Clamped   bool    `parquet:"name=clamped, type=BOOLEAN"`
}

// MarshalParquet encodes a plan as a snappy-compressed parquet file
func MarshalParquet(course string, plan *pacing.PacingPlan) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range Rows(plan) {
		row := parquetRow{
			Course:    course,
			Segment:   int32(r.Segment),
			DistanceM: r.DistanceM,
			Grade:     r.Grade,
			PowerW:    r.PowerW,
			SpeedMPS:  r.SpeedMPS,
			TimeS:     r.TimeS,
			ElapsedS:  r.ElapsedS,
			WBalanceJ: r.WBalanceJ,
			Factor:    plan.ScalingFactor,
			Clamped:   r.Clamped,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("writing parquet row %d: %w", r.Segment, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finishing parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// WriteParquet writes the parquet encoding of a plan to w
func WriteParquet(w io.Writer, course string, plan *pacing.PacingPlan) error {
	data, err := MarshalParquet(course, plan)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Package fees A股交易费用计算。
package fees

// Schedule 费率表。佣金双边收取，印花税仅卖出，过户费双边。
type Schedule struct {
	CommissionRate  float64 `yaml:"commissionRate"`  // 佣金费率（万2.5）
	MinCommission   float64 `yaml:"minCommission"`   // 最低佣金（5 元）
	StampDutyRate   float64 `yaml:"stampDutyRate"`   // 印花税率（千0.5，仅卖出）
	TransferFeeRate float64 `yaml:"transferFeeRate"` // 过户费率（十万1）
}

// Default 常见的 A 股费率。
func Default() Schedule {
	return Schedule{
		CommissionRate:  0.00025,
		MinCommission:   5.0,
		StampDutyRate:   0.0005,
		TransferFeeRate: 0.00001,
	}
}

// Breakdown 单笔成交的费用明细。
type Breakdown struct {
	Commission  float64
	StampDuty   float64
	TransferFee float64
}

// Total 费用合计。
func (b Breakdown) Total() float64 {
	return b.Commission + b.StampDuty + b.TransferFee
}

// Calculate 按成交金额计费。sell 为真时计入印花税。
func (s Schedule) Calculate(amount float64, sell bool) Breakdown {
	b := Breakdown{
		Commission:  amount * s.CommissionRate,
		TransferFee: amount * s.TransferFeeRate,
	}
	if b.Commission < s.MinCommission {
		b.Commission = s.MinCommission
	}
	if sell {
		b.StampDuty = amount * s.StampDutyRate
	}
	return b
}

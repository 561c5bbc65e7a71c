package service

import (
	"machata/internal/models"
)

// Quote результат расчета цены.
type Quote struct {
	Base     int // до скидки
	Discount int // процент, 0 если скидки нет
	Final    int
	// VIPDiscount скидка персональная, а не за объем
	VIPDiscount bool
	// CustomRate индивидуальный тариф VIP, скидки к нему не применяются
	CustomRate bool
}

type PricingService struct{}

func NewPricingService() *PricingService {
	return &PricingService{}
}

// Calculate считает цену брони. Порядок правил:
//  1. индивидуальный тариф VIP на почасовую услугу, без скидок;
//  2. базовая цена: фикс для пакетной услуги независимо от числа часов,
//     ставка на часы для почасовой;
//  3. одна скидка, не суммируются: персональная VIP, иначе 15% от 5 часов,
//     иначе 10% от 3 часов. Скидки за объем только на почасовые услуги,
//     цена пакета от длительности не зависит.
func (p *PricingService) Calculate(svc models.Service, hours int, vip *models.VIPUser) Quote {
	if svc.CustomRateEligible && vip.HasCustomRate() {
		price := vip.CustomRate * hours
		return Quote{Base: price, Final: price, CustomRate: true}
	}

	base := svc.Rate
	if svc.PerHour {
		base = svc.Rate * hours
	}

	discount := 0
	switch {
	case vip.HasDiscount():
		discount = vip.Discount
	case svc.PerHour && hours >= models.VolumeDiscountBigHours:
		discount = models.VolumeDiscountBigPercent
	case svc.PerHour && hours >= models.VolumeDiscountSmallHours:
		discount = models.VolumeDiscountSmallPercent
	}

	return Quote{
		Base:        base,
		Discount:    discount,
		Final:       base * (100 - discount) / 100,
		VIPDiscount: vip.HasDiscount(),
	}
}
